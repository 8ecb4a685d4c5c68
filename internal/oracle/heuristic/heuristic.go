// Package heuristic is a deterministic, keyword-driven Oracle used when no
// external classifier is configured, and in tests. It trades recall for
// predictability: when a signal is not clearly present it answers unknown
// rather than guessing.
package heuristic

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"credocs/internal/oracle"
)

var cashflowOpinionKeywords = []string{
	"cashflow opinion", "cash flow opinion", "projected cashflow opinion",
	"opinion on cashflow", "opinion on cash flow", "cashflow analysis",
	"cash flow analysis", "cashflow assessment",
	"projected cash flow assessment",
}

var creditOpinionKeywords = []string{
	"credit application opinion", "overall opinion", "credit opinion",
	"application opinion", "overall assessment", "credit assessment",
	"final opinion", "recommendation", "credit recommendation",
	"overall recommendation",
}

var tierKeywords = []struct {
	tier     oracle.ReportTier
	keywords []string
}{
	{oracle.TierAudit, []string{"audit report", "auditor's report", "auditoría", "audit opinion", "audited"}},
	{oracle.TierLimitedReview, []string{"limited review", "revisión limitada", "review report"}},
	{oracle.TierCompilation, []string{"compilation report", "compilación", "compilation"}},
}

// figurePattern captures "assets ... 150000" style labeled amounts,
// tolerating currency symbols and thousands separators.
var figurePatterns = map[string]*regexp.Regexp{
	"assets":      regexp.MustCompile(`(?:total\s+)?assets?\s*[:=]?\s*\$?\s*([\d.,]+)`),
	"liabilities": regexp.MustCompile(`(?:total\s+)?liabilit(?:y|ies)\s*[:=]?\s*\$?\s*([\d.,]+)`),
	"equity":      regexp.MustCompile(`(?:total\s+)?equity\s*[:=]?\s*\$?\s*([\d.,]+)`),
}

var durationPattern = regexp.MustCompile(`(\d{1,2})\s*(?:year|año)`)
var yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

// Oracle implements oracle.Oracle with keyword tables.
type Oracle struct {
	now func() time.Time
}

// New returns a heuristic oracle. A nil clock defaults to time.Now.
func New(now func() time.Time) *Oracle {
	if now == nil {
		now = time.Now
	}
	return &Oracle{now: now}
}

var _ oracle.Oracle = (*Oracle)(nil)

func (o *Oracle) ClassifyReportTier(_ context.Context, text string, _ oracle.DebtContext) oracle.ReportTier {
	for _, tk := range tierKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(text, kw) {
				return tk.tier
			}
		}
	}
	return oracle.TierIndeterminate
}

func (o *Oracle) CheckAccountingEquation(_ context.Context, text string) oracle.AccountingFigures {
	out := oracle.AccountingFigures{Confidence: oracle.ConfidenceMedium}
	pick := func(name string) *float64 {
		m := figurePatterns[name].FindStringSubmatch(text)
		if m == nil {
			return nil
		}
		cleaned := strings.ReplaceAll(m[1], ",", "")
		v, err := strconv.ParseFloat(strings.TrimRight(cleaned, "."), 64)
		if err != nil {
			return nil
		}
		return &v
	}
	out.Assets = pick("assets")
	out.Liabilities = pick("liabilities")
	out.Equity = pick("equity")
	if out.Assets == nil || out.Liabilities == nil || out.Equity == nil {
		out.Confidence = oracle.ConfidenceNone
	}
	return out
}

func (o *Oracle) CheckDualOpinions(_ context.Context, text string) oracle.DualOpinions {
	present := func(keywords []string) oracle.TriState {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return oracle.Present
			}
		}
		return oracle.Absent
	}
	return oracle.DualOpinions{
		Cashflow: present(cashflowOpinionKeywords),
		Credit:   present(creditOpinionKeywords),
	}
}

func (o *Oracle) CheckProjectionCoverage(_ context.Context, text string) oracle.ProjectionCoverage {
	out := oracle.ProjectionCoverage{Confidence: oracle.ConfidenceNone}
	currentYear := o.now().Year()

	best := 0
	for _, m := range yearPattern.FindAllStringSubmatch(text, -1) {
		if y, err := strconv.Atoi(m[1]); err == nil && y >= currentYear && y > best {
			best = y
		}
	}
	if best > 0 {
		out.FinalYear = &best
		out.Confidence = oracle.ConfidenceMedium
		return out
	}

	if m := durationPattern.FindStringSubmatch(text); m != nil {
		if d, err := strconv.Atoi(m[1]); err == nil && d > 0 {
			out.DurationYears = &d
			out.Confidence = oracle.ConfidenceLow
		}
	}
	return out
}
