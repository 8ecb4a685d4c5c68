package model

// OrganizationalContext is the process-wide mutable configuration the
// validators read: the company category plus the declared maximum debt
// amount (UYU) and term. It is not attached to any single document.
//
// Nil pointers mean "not configured". Changing the category preserves the
// debt fields and existing documents; it only changes which documents are
// considered required.
type OrganizationalContext struct {
	CompanyCategory  CompanyCategory `json:"company_category,omitempty"`
	MaxDebtAmount    *float64        `json:"max_debt_amount,omitempty"`
	MaxDebtTermYears *int            `json:"max_debt_term_years,omitempty"`
}

// Normalize resets out-of-domain debt values to unset. Negative amounts or
// terms are treated as "not configured" rather than rejected.
func (c *OrganizationalContext) Normalize() {
	if c.MaxDebtAmount != nil && *c.MaxDebtAmount < 0 {
		c.MaxDebtAmount = nil
	}
	if c.MaxDebtTermYears != nil && *c.MaxDebtTermYears < 0 {
		c.MaxDebtTermYears = nil
	}
}

// DebtAmount returns the configured maximum debt amount, if any.
func (c OrganizationalContext) DebtAmount() (float64, bool) {
	if c.MaxDebtAmount == nil {
		return 0, false
	}
	return *c.MaxDebtAmount, true
}

// DebtTermYears returns the configured maximum debt term, if any.
func (c OrganizationalContext) DebtTermYears() (int, bool) {
	if c.MaxDebtTermYears == nil {
		return 0, false
	}
	return *c.MaxDebtTermYears, true
}
