package validate

import (
	"context"
	"fmt"
	"strings"

	"credocs/internal/content"
	"credocs/internal/model"
	"credocs/internal/oracle"
)

func (p *Pipeline) validateDICOSE(in Input) Verdict {
	t := model.TypeDICOSE

	cat := in.Context.CompanyCategory
	if cat != model.CategoryAgricultural && cat != model.CategoryNew {
		return invalid(t, model.ReasonWrongCategory,
			"DICOSE documents are only required for agricultural companies and new companies. "+
				"Please select the correct company category.")
	}

	if in.Facts.Year == nil {
		return invalid(t, model.ReasonStructuralIncomplete,
			"DICOSE document must include a specific year. "+
				"Please ensure the document clearly indicates the year it corresponds to.")
	}
	year := *in.Facts.Year

	if in.Extracted.Kind == content.KindText && in.Facts.TextLength < minLenDICOSE {
		v := invalid(t, model.ReasonStructuralIncomplete,
			"DICOSE document appears to be incomplete. Please provide a complete DICOSE registration document.")
		v.Year = &year
		return v
	}

	if check := YearConsistency(in.Existing, year); !check.Consistent {
		v := invalid(t, model.ReasonCrossDocument,
			fmt.Sprintf("DICOSE year (%d) does not match existing documents. %s", year, check.Message))
		v.Year = &year
		return v
	}

	return Verdict{Type: t, Valid: true, Year: &year}
}

func (p *Pipeline) validateDETA(ctx context.Context, in Input) Verdict {
	t := model.TypeDETA

	if in.Context.CompanyCategory != model.CategoryAgricultural {
		return invalid(t, model.ReasonWrongCategory,
			"DETA documents are only required for agricultural companies. "+
				"Please select the correct company category.")
	}

	opinions := p.oracle.CheckDualOpinions(ctx, in.Extracted.Text)

	v := Verdict{Type: t, Valid: true}
	switch {
	case opinions.Cashflow == oracle.Unknown || opinions.Credit == oracle.Unknown:
		v = invalid(t, model.ReasonOracleIndeterminate,
			"Could not determine whether the DETA document contains the required opinions. "+
				"Please submit it for manual review.")
	case opinions.Cashflow == oracle.Absent && opinions.Credit == oracle.Absent:
		v = invalid(t, model.ReasonStructuralIncomplete,
			"DETA document must include both an opinion on the projected cashflow and an overall "+
				"opinion on the credit application. Both opinions are missing.")
	case opinions.Cashflow == oracle.Absent:
		v = invalid(t, model.ReasonStructuralIncomplete,
			"DETA document is missing an opinion on the projected cashflow. "+
				"Please include an assessment of the cashflow projections.")
	case opinions.Credit == oracle.Absent:
		v = invalid(t, model.ReasonStructuralIncomplete,
			"DETA document is missing an overall opinion on the credit application. "+
				"Please include a final recommendation or assessment.")
	}

	// Length shortfall is supplementary: it never overrides the opinion
	// verdict, it concatenates onto it.
	if in.Extracted.Kind == content.KindText && in.Facts.TextLength < minLenDETA {
		incomplete := "DETA document appears to be incomplete. Please provide a comprehensive DETA " +
			"declaration with detailed opinions on both the cashflow and credit application."
		if v.Valid {
			v = invalid(t, model.ReasonStructuralIncomplete, incomplete)
		} else {
			v.Message = strings.TrimSpace(v.Message + " " + incomplete)
		}
	}

	return v
}

var flujoConcepts = []string{"operating", "investing", "financing", "cash"}

func (p *Pipeline) validateFlujoDeFondos(ctx context.Context, in Input) Verdict {
	t := model.TypeFlujoDeFondos

	yearPtr := in.Facts.ProjectionYear

	if missing := missingConcepts(in.Extracted.Text, flujoConcepts); len(missing) > 2 {
		v := invalid(t, model.ReasonStructuralIncomplete,
			fmt.Sprintf("Flujo de Fondos is missing key elements: %s. Please ensure the document "+
				"includes operating, investing, and financing activities.", strings.Join(missing, ", ")))
		v.Year = yearPtr
		return v
	}

	if in.Extracted.Kind == content.KindText && in.Facts.TextLength < minLenFlujo {
		v := invalid(t, model.ReasonStructuralIncomplete,
			"Flujo de Fondos appears to be incomplete. Please provide a detailed projected cashflow statement.")
		v.Year = yearPtr
		return v
	}

	term, hasTerm := in.Context.DebtTermYears()
	if !hasTerm || term <= 0 {
		return Verdict{Type: t, Valid: true, Year: yearPtr,
			Message: "Debt term not configured; projection coverage check not applicable."}
	}

	cov := p.oracle.CheckProjectionCoverage(ctx, in.Extracted.Text)
	currentYear := p.now().Year()

	coverageYear, resolved := 0, false
	switch {
	case cov.FinalYear != nil:
		coverageYear, resolved = *cov.FinalYear, true
	case cov.DurationYears != nil:
		coverageYear, resolved = currentYear+*cov.DurationYears, true
	}
	if !resolved || cov.Confidence == oracle.ConfidenceLow || cov.Confidence == oracle.ConfidenceNone {
		v := invalid(t, model.ReasonOracleIndeterminate,
			"Cannot determine the projection coverage of the Flujo de Fondos. "+
				"Please state the final projection year explicitly.")
		v.Year = yearPtr
		return v
	}

	requiredYear := currentYear + term
	if coverageYear < requiredYear {
		v := invalid(t, model.ReasonStructuralIncomplete,
			fmt.Sprintf("Flujo de Fondos projects through %d but the declared debt term requires "+
				"coverage through %d.", coverageYear, requiredYear))
		v.Year = yearPtr
		return v
	}

	return Verdict{Type: t, Valid: true, Year: yearPtr,
		Message: fmt.Sprintf("Projection coverage through %d satisfies the declared debt term.", coverageYear)}
}

var balanceConcepts = []string{"assets", "liabilities", "income", "equity"}

func (p *Pipeline) validateBalance(ctx context.Context, in Input) Verdict {
	t := model.TypeBalance

	yearPtr := in.Facts.Year

	if missing := missingConcepts(in.Extracted.Text, balanceConcepts); len(missing) > 2 {
		v := invalid(t, model.ReasonStructuralIncomplete,
			fmt.Sprintf("Balance is missing key elements: %s. Please ensure the document includes "+
				"assets, liabilities, income, and equity.", strings.Join(missing, ", ")))
		v.Year = yearPtr
		return v
	}

	if in.Extracted.Kind == content.KindText && in.Facts.TextLength < minLenBalance {
		v := invalid(t, model.ReasonStructuralIncomplete,
			"Balance appears to be incomplete. Please provide a comprehensive financial statement.")
		v.Year = yearPtr
		return v
	}

	v := p.checkAccountingEquation(ctx, t, in.Extracted.Text)
	v.Year = yearPtr

	// Year consistency is enforced independently of the equation result and
	// overrides a valid verdict.
	cat := in.Context.CompanyCategory
	if yearPtr != nil && (cat == model.CategoryAgricultural || cat == model.CategoryNew) {
		if check := YearConsistency(in.Existing, *yearPtr); !check.Consistent {
			mismatch := invalid(t, model.ReasonCrossDocument,
				fmt.Sprintf("Balance year (%d) does not match existing DICOSE documents. %s",
					*yearPtr, check.Message))
			mismatch.Year = yearPtr
			return mismatch
		}
	}

	return v
}

// checkAccountingEquation recomputes assets - (liabilities + equity) from
// the oracle's own extracted numbers. The oracle's self-reported difference
// is never trusted: a self-contradictory "holds" claim is overridden by the
// recomputation.
func (p *Pipeline) checkAccountingEquation(ctx context.Context, t model.DocumentType, text string) Verdict {
	fig := p.oracle.CheckAccountingEquation(ctx, text)

	if fig.Assets == nil || fig.Liabilities == nil || fig.Equity == nil {
		return invalid(t, model.ReasonOracleIndeterminate,
			"Could not extract the balance figures to verify the accounting equation. "+
				"Flagged for manual review.")
	}

	diff := *fig.Assets - (*fig.Liabilities + *fig.Equity)
	if diff < 0 {
		diff = -diff
	}
	if diff >= 0.01 {
		return invalid(t, model.ReasonStructuralIncomplete,
			fmt.Sprintf("Accounting equation does not hold: assets %.2f, liabilities %.2f, "+
				"equity %.2f, difference %.2f.", *fig.Assets, *fig.Liabilities, *fig.Equity, diff))
	}

	return Verdict{Type: t, Valid: true,
		Message: fmt.Sprintf("Accounting equation holds: assets %.2f = liabilities %.2f + equity %.2f.",
			*fig.Assets, *fig.Liabilities, *fig.Equity)}
}

// RequiredTier maps the declared maximum debt amount to the minimum
// assurance tier an Informe Profesional must carry.
func RequiredTier(maxDebtAmount float64) oracle.ReportTier {
	switch {
	case maxDebtAmount < debtLimitedReviewThreshold:
		return oracle.TierCompilation
	case maxDebtAmount < debtAuditThreshold:
		return oracle.TierLimitedReview
	default:
		return oracle.TierAudit
	}
}

var informeConcepts = []string{"certified", "declaration", "accountant"}

func (p *Pipeline) validateInformeProfesional(ctx context.Context, in Input) Verdict {
	t := model.TypeInformeProfesional

	amount, hasAmount := in.Context.DebtAmount()
	tier := p.oracle.ClassifyReportTier(ctx, in.Extracted.Text, oracle.DebtContext{
		MaxDebtAmount: in.Context.MaxDebtAmount,
	})
	if tier == oracle.TierIndeterminate {
		return invalid(t, model.ReasonOracleIndeterminate,
			"Could not determine the assurance tier of the Informe Profesional. "+
				"Please submit it for manual review.")
	}

	if !hasAmount {
		return invalid(t, model.ReasonMissingContext,
			"Configure the maximum debt amount before submitting an Informe Profesional.")
	}

	if required := RequiredTier(amount); tier < required {
		return invalid(t, model.ReasonStructuralIncomplete,
			fmt.Sprintf("An Informe Profesional at the %s level or above is required for the "+
				"declared debt amount; this document is at the %s level.", required, tier))
	}

	if missing := missingConcepts(in.Extracted.Text, informeConcepts); len(missing) > 1 {
		return invalid(t, model.ReasonStructuralIncomplete,
			fmt.Sprintf("Informe Profesional is missing required elements: %s. Please ensure the "+
				"document is properly certified by a qualified accountant.", strings.Join(missing, ", ")))
	}

	if in.Extracted.Kind == content.KindText && in.Facts.TextLength < minLenInforme {
		return invalid(t, model.ReasonStructuralIncomplete,
			"Informe Profesional appears to be incomplete. Please provide a complete declaration "+
				"from a certified accountant.")
	}

	return Verdict{Type: t, Valid: true}
}
