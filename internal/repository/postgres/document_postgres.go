package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"credocs/internal/model"
	"credocs/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of
// repository.DocumentRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, name, locator, uploaded_at, is_valid, validation_message,
	document_type, company_category, document_year, reason_code`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	var msg sql.NullString
	var cat sql.NullString
	var year sql.NullInt64
	var reason sql.NullString
	if err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Locator,
		&d.UploadedAt,
		&d.IsValid,
		&msg,
		&d.DocumentType,
		&cat,
		&year,
		&reason,
	); err != nil {
		return nil, err
	}
	d.ValidationMessage = msg.String
	d.CompanyCategory = model.CompanyCategory(cat.String)
	if year.Valid {
		y := int(year.Int64)
		d.DocumentYear = &y
	}
	d.ReasonCode = model.ReasonCode(reason.String)
	return &d, nil
}

func nullableStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableYear(y *int) any {
	if y == nil {
		return nil
	}
	return *y
}

// List returns primary entries and latest rejections, newest first.
func (r *DocumentPostgres) List(ctx context.Context) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + `
		FROM documents
		ORDER BY uploaded_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID fetches any current document by ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return d, err
}

// FindByKey fetches the primary entry at the identity key.
func (r *DocumentPostgres) FindByKey(ctx context.Context, key string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE identity_key = $1 AND NOT rejected`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return d, err
}

const insertQuery = `
	INSERT INTO documents (id, name, locator, uploaded_at, is_valid, validation_message,
		document_type, company_category, document_year, reason_code, identity_key, rejected)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

func (r *DocumentPostgres) insertRow(ctx context.Context, tx *sql.Tx, key string, doc *model.Document, rejected bool) error {
	exec := r.db.ExecContext
	if tx != nil {
		exec = tx.ExecContext
	}
	_, err := exec(ctx, insertQuery,
		doc.ID,
		doc.Name,
		doc.Locator,
		doc.UploadedAt,
		doc.IsValid,
		nullableStr(doc.ValidationMessage),
		doc.DocumentType,
		// company_category is NOT NULL DEFAULT ''; unset stays the empty string.
		string(doc.CompanyCategory),
		nullableYear(doc.DocumentYear),
		nullableStr(string(doc.ReasonCode)),
		key,
		rejected,
	)
	return err
}

// Insert stores a new primary entry.
func (r *DocumentPostgres) Insert(ctx context.Context, key string, doc *model.Document) error {
	return r.insertRow(ctx, nil, key, doc, false)
}

// ReplaceByKey swaps the primary entry at the key atomically.
func (r *DocumentPostgres) ReplaceByKey(ctx context.Context, key string, doc *model.Document) error {
	return r.replace(ctx, key, doc, false)
}

// SaveRejection records the latest rejected attempt at the key.
func (r *DocumentPostgres) SaveRejection(ctx context.Context, key string, doc *model.Document) error {
	return r.replace(ctx, key, doc, true)
}

func (r *DocumentPostgres) replace(ctx context.Context, key string, doc *model.Document, rejected bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE identity_key = $1 AND rejected = $2`, key, rejected); err != nil {
		return fmt.Errorf("delete previous entry: %w", err)
	}
	if err := r.insertRow(ctx, tx, key, doc, rejected); err != nil {
		return fmt.Errorf("insert replacement: %w", err)
	}
	return tx.Commit()
}

// CountValid counts valid primary entries of one type and category.
func (r *DocumentPostgres) CountValid(ctx context.Context, t model.DocumentType, cat model.CompanyCategory) (int, error) {
	const q = `
		SELECT COUNT(*) FROM documents
		WHERE document_type = $1 AND company_category = $2 AND is_valid AND NOT rejected
	`
	var n int
	if err := r.db.QueryRowContext(ctx, q, t, string(cat)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteByID removes a document row; ErrNotFound when nothing matched.
func (r *DocumentPostgres) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
