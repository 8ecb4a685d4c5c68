package validate

import (
	"fmt"
	"sort"
	"strings"

	"credocs/internal/model"
)

// Consistency is the result of a cross-document year check.
type Consistency struct {
	Consistent bool
	Years      []int
	Message    string
}

// YearConsistency groups the currently-valid Balance and DICOSE documents,
// collects their years together with any candidate years, and declares
// inconsistency when more than one distinct year appears across the union.
// It is evaluated fresh against the current store snapshot on every call.
func YearConsistency(docs []model.Document, candidateYears ...int) Consistency {
	seen := map[int]bool{}
	for _, d := range docs {
		if !d.IsValid {
			continue
		}
		if d.DocumentType != model.TypeBalance && d.DocumentType != model.TypeDICOSE {
			continue
		}
		if y, ok := d.Year(); ok {
			seen[y] = true
		}
	}
	for _, y := range candidateYears {
		seen[y] = true
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)

	if len(years) <= 1 {
		return Consistency{Consistent: true, Years: years}
	}

	labels := make([]string, len(years))
	for i, y := range years {
		labels[i] = fmt.Sprintf("%d", y)
	}
	return Consistency{
		Consistent: false,
		Years:      years,
		Message: fmt.Sprintf(
			"Found documents for years: %s. All balances and DICOSE declarations must be for the same year.",
			strings.Join(labels, ", ")),
	}
}
