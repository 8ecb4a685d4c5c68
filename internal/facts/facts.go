// Package facts pulls weak structured signals out of normalized document
// text. Extraction functions are registered as probes so validators can
// compose the signals they need without re-scanning the content themselves.
package facts

import (
	"regexp"
	"time"
)

// yearPattern matches 4-digit tokens that look like a 21st-century year.
var yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

const (
	// earliestAccepted is the oldest year a historical statement may carry.
	earliestAccepted = 2020
	// projectionHorizon caps how far into the future a projection year may be.
	projectionHorizon = 20
)

// Built-in signal names.
const (
	SignalYear           = "year"
	SignalProjectionYear = "projection_year"
	SignalTextLength     = "text_length"
)

// Facts is the set of built-in signals extracted for one document. Year is
// the historical reading, ProjectionYear the projection-mode reading; either
// may be nil when no candidate fits the window.
type Facts struct {
	Year           *int
	ProjectionYear *int
	TextLength     int
}

// Probe derives one named signal from normalized text and filename.
type Probe func(text, filename string) (any, bool)

// Registry holds named probes. The zero value is usable.
type Registry struct {
	probes map[string]Probe
}

// NewRegistry returns a registry preloaded with the built-in probes.
func NewRegistry(now func() time.Time) *Registry {
	r := &Registry{}
	r.Register(SignalYear, YearProbe(false, now))
	r.Register(SignalProjectionYear, YearProbe(true, now))
	r.Register(SignalTextLength, TextLengthProbe())
	return r
}

// Register adds or replaces a named probe.
func (r *Registry) Register(name string, p Probe) {
	if r.probes == nil {
		r.probes = map[string]Probe{}
	}
	r.probes[name] = p
}

// Run evaluates every registered probe and returns the signals that fired.
func (r *Registry) Run(text, filename string) map[string]any {
	out := map[string]any{}
	for name, p := range r.probes {
		if v, ok := p(text, filename); ok {
			out[name] = v
		}
	}
	return out
}

func candidateYears(text, filename string) []int {
	var years []int
	for _, src := range []string{text, filename} {
		for _, m := range yearPattern.FindAllStringSubmatch(src, -1) {
			y := int(m[1][0]-'0')*1000 + int(m[1][1]-'0')*100 + int(m[1][2]-'0')*10 + int(m[1][3]-'0')
			years = append(years, y)
		}
	}
	return years
}

// ExtractYear scans text and filename for year-like tokens and picks one.
//
// Historical mode anchors to the most recent past year mentioned, within
// [2020, currentYear], so stray years in prose do not win. Projection mode
// widens the window up to currentYear+20 and prefers the furthest future
// year claimed, falling back to the latest candidate of any year.
func ExtractYear(text, filename string, projection bool, now time.Time) (int, bool) {
	currentYear := now.Year()
	candidates := candidateYears(text, filename)
	if len(candidates) == 0 {
		return 0, false
	}

	if !projection {
		best, found := 0, false
		for _, y := range candidates {
			if y >= earliestAccepted && y <= currentYear && y > best {
				best, found = y, true
			}
		}
		return best, found
	}

	var bestFuture, bestAny int
	var haveFuture, haveAny bool
	for _, y := range candidates {
		if y < earliestAccepted || y > currentYear+projectionHorizon {
			continue
		}
		if y > bestAny {
			bestAny, haveAny = y, true
		}
		if y >= currentYear && y > bestFuture {
			bestFuture, haveFuture = y, true
		}
	}
	if haveFuture {
		return bestFuture, true
	}
	if haveAny {
		return bestAny, true
	}
	return 0, false
}

// YearProbe wraps ExtractYear as a registrable probe.
func YearProbe(projection bool, now func() time.Time) Probe {
	return func(text, filename string) (any, bool) {
		y, ok := ExtractYear(text, filename, projection, now())
		return y, ok
	}
}

// TextLengthProbe reports the length of the normalized text. It always fires.
func TextLengthProbe() Probe {
	return func(text, _ string) (any, bool) {
		return len(text), true
	}
}

// Extract runs every probe and folds the built-in signals into a Facts value.
// Custom probes still run; their signals are available through Run.
func (r *Registry) Extract(text, filename string) Facts {
	var f Facts
	signals := r.Run(text, filename)
	if y, ok := signals[SignalYear].(int); ok {
		f.Year = &y
	}
	if y, ok := signals[SignalProjectionYear].(int); ok {
		f.ProjectionYear = &y
	}
	if n, ok := signals[SignalTextLength].(int); ok {
		f.TextLength = n
	}
	return f
}
