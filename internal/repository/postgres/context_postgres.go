package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"credocs/internal/model"
	"credocs/internal/repository"
)

// ContextPostgres stores the single organizational context row.
type ContextPostgres struct {
	db *sql.DB
}

// NewContextPostgres creates a new ContextPostgres repository.
func NewContextPostgres(db *sql.DB) *ContextPostgres {
	return &ContextPostgres{db: db}
}

var _ repository.ContextRepository = (*ContextPostgres)(nil)

// Get returns the stored context; never set yields a zero value.
func (r *ContextPostgres) Get(ctx context.Context) (model.OrganizationalContext, error) {
	const q = `
		SELECT company_category, max_debt_amount, max_debt_term_years
		FROM org_context WHERE id = 1
	`
	var out model.OrganizationalContext
	var cat sql.NullString
	var amount sql.NullFloat64
	var term sql.NullInt64
	err := r.db.QueryRowContext(ctx, q).Scan(&cat, &amount, &term)
	if errors.Is(err, sql.ErrNoRows) {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	out.CompanyCategory = model.CompanyCategory(cat.String)
	if amount.Valid {
		v := amount.Float64
		out.MaxDebtAmount = &v
	}
	if term.Valid {
		v := int(term.Int64)
		out.MaxDebtTermYears = &v
	}
	return out, nil
}

// Save upserts the single context row.
func (r *ContextPostgres) Save(ctx context.Context, c model.OrganizationalContext) error {
	const q = `
		INSERT INTO org_context (id, company_category, max_debt_amount, max_debt_term_years, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			company_category = EXCLUDED.company_category,
			max_debt_amount = EXCLUDED.max_debt_amount,
			max_debt_term_years = EXCLUDED.max_debt_term_years,
			updated_at = EXCLUDED.updated_at
	`
	var amount any
	if c.MaxDebtAmount != nil {
		amount = *c.MaxDebtAmount
	}
	var term any
	if c.MaxDebtTermYears != nil {
		term = *c.MaxDebtTermYears
	}
	_, err := r.db.ExecContext(ctx, q,
		nullableStr(string(c.CompanyCategory)), amount, term, time.Now().UTC())
	return err
}
