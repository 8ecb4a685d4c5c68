// Package oracle defines the fuzzy classification/extraction capability the
// validators consult for decisions that plain keyword matching cannot make.
// Implementations must degrade to unknown/indeterminate results on any
// failure (network, credentials, malformed responses) instead of surfacing
// errors into the validation pipeline.
package oracle

import "context"

// TriState is a three-valued presence verdict.
type TriState string

const (
	Present TriState = "present"
	Absent  TriState = "absent"
	Unknown TriState = "unknown"
)

// Confidence grades how much an extraction result can be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// ReportTier orders accountant report assurance levels.
type ReportTier int

const (
	TierIndeterminate ReportTier = iota
	TierCompilation
	TierLimitedReview
	TierAudit
)

func (t ReportTier) String() string {
	switch t {
	case TierCompilation:
		return "compilation"
	case TierLimitedReview:
		return "limited review"
	case TierAudit:
		return "audit"
	default:
		return "indeterminate"
	}
}

// ParseReportTier maps a textual tier to its ordered value; anything else is
// indeterminate.
func ParseReportTier(s string) ReportTier {
	switch s {
	case "compilation":
		return TierCompilation
	case "limited review", "limited_review":
		return TierLimitedReview
	case "audit":
		return TierAudit
	default:
		return TierIndeterminate
	}
}

// DebtContext carries the organizational debt figures a tier classification
// may take into account.
type DebtContext struct {
	MaxDebtAmount *float64
}

// DualOpinions is the result of scanning a DETA declaration for its two
// required professional opinions.
type DualOpinions struct {
	Cashflow TriState `json:"cashflow_opinion"`
	Credit   TriState `json:"credit_opinion"`
}

// AccountingFigures holds the monetary values extracted from a balance
// statement. Nil means the value could not be extracted. The oracle's own
// claimed difference is deliberately not part of this type: callers must
// recompute Assets - (Liabilities + Equity) themselves.
type AccountingFigures struct {
	Assets      *float64   `json:"assets"`
	Liabilities *float64   `json:"liabilities"`
	Equity      *float64   `json:"equity"`
	Confidence  Confidence `json:"confidence"`
}

// ProjectionCoverage describes how far into the future a projected cashflow
// claims to reach, either as an explicit final year or as a duration.
type ProjectionCoverage struct {
	FinalYear     *int       `json:"final_year"`
	DurationYears *int       `json:"duration_years"`
	Confidence    Confidence `json:"confidence"`
}

// Oracle is the capability surface consumed by the validators.
type Oracle interface {
	ClassifyReportTier(ctx context.Context, text string, debt DebtContext) ReportTier
	CheckAccountingEquation(ctx context.Context, text string) AccountingFigures
	CheckDualOpinions(ctx context.Context, text string) DualOpinions
	CheckProjectionCoverage(ctx context.Context, text string) ProjectionCoverage
}
