package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"credocs/internal/model"
	"credocs/internal/repository"
)

var documentCols = []string{
	"id", "name", "locator", "uploaded_at", "is_valid", "validation_message",
	"document_type", "company_category", "document_year", "reason_code",
}

func sampleDoc(now time.Time) *model.Document {
	year := 2023
	return &model.Document{
		ID:              "test-uuid",
		Name:            "balance_2023.txt",
		Locator:         "documents/test-uuid.txt",
		UploadedAt:      now,
		IsValid:         true,
		DocumentType:    model.TypeBalance,
		CompanyCategory: model.CategoryAgricultural,
		DocumentYear:    &year,
	}
}

func TestDocumentPostgres_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	now := time.Now().UTC()
	doc := sampleDoc(now)

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, doc.Name, doc.Locator, doc.UploadedAt, doc.IsValid, nil,
			doc.DocumentType, string(doc.CompanyCategory), *doc.DocumentYear, nil,
			"Balance|agricultural|2023", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Insert(context.Background(), doc.IdentityKey(), doc)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_InsertUnsetCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	doc := &model.Document{
		ID:                "unset-uuid",
		Name:              "report.txt",
		Locator:           "documents/unset-uuid.txt",
		UploadedAt:        time.Now().UTC(),
		IsValid:           false,
		ValidationMessage: "Document type not recognized.",
		DocumentType:      model.TypeUnrecognized,
		ReasonCode:        model.ReasonNotRecognized,
	}
	key := doc.IdentityKey()

	// The company_category column is NOT NULL: a document uploaded before any
	// category is selected must reach it as '' rather than SQL NULL.
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM documents WHERE identity_key = (.+) AND rejected = ?").
		WithArgs(key, true).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, doc.Name, doc.Locator, doc.UploadedAt, false, doc.ValidationMessage,
			doc.DocumentType, "", nil, string(doc.ReasonCode), key, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.SaveRejection(context.Background(), key, doc)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(documentCols).
			AddRow("test-id", "b.txt", "documents/b.txt", time.Now(), true, nil,
				"Balance", "agricultural", 2023, nil)

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE identity_key = (.+) AND NOT rejected").
			WithArgs("Balance|agricultural|2023").
			WillReturnRows(rows)

		doc, err := repo.FindByKey(ctx, "Balance|agricultural|2023")

		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, "test-id", doc.ID)
		assert.Equal(t, model.TypeBalance, doc.DocumentType)
		if assert.NotNil(t, doc.DocumentYear) {
			assert.Equal(t, 2023, *doc.DocumentYear)
		}
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE identity_key = (.+) AND NOT rejected").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByKey(ctx, "missing")

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)

	rows := sqlmock.NewRows(documentCols).
		AddRow("id-2", "b.txt", "documents/b.txt", time.Now(), false, "rejected", "DETA", "agricultural", nil, "STRUCTURAL_INCOMPLETE").
		AddRow("id-1", "a.txt", "documents/a.txt", time.Now().Add(-time.Hour), true, nil, "Balance", "agricultural", 2023, nil)

	mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY uploaded_at DESC").
		WillReturnRows(rows)

	items, err := repo.List(context.Background())

	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "id-2", items[0].ID)
	assert.Equal(t, model.ReasonStructuralIncomplete, items[0].ReasonCode)
	assert.Nil(t, items[0].DocumentYear)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ReplaceByKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	now := time.Now().UTC()
	doc := sampleDoc(now)
	key := doc.IdentityKey()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM documents WHERE identity_key = (.+) AND rejected = ?").
		WithArgs(key, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.ReplaceByKey(context.Background(), key, doc)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_SaveRejection(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	doc := sampleDoc(time.Now().UTC())
	doc.IsValid = false
	doc.ValidationMessage = "incomplete"
	key := doc.IdentityKey()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM documents WHERE identity_key = (.+) AND rejected = ?").
		WithArgs(key, true).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.SaveRejection(context.Background(), key, doc)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_CountValid(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(model.TypeBalance, "new").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountValid(context.Background(), model.TypeBalance, model.CategoryNew)

	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDocumentPostgres_DeleteByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").
			WithArgs("doc-id").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DeleteByID(ctx, "doc-id"))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.DeleteByID(ctx, "missing"), repository.ErrNotFound)
	})
}

func TestContextPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewContextPostgres(db)
	ctx := context.Background()

	t.Run("get empty when no row", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM org_context").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.Get(ctx)
		assert.NoError(t, err)
		assert.Equal(t, model.OrganizationalContext{}, got)
	})

	t.Run("get populated row", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"company_category", "max_debt_amount", "max_debt_term_years"}).
			AddRow("agricultural", 1500000.0, 5)
		mock.ExpectQuery("SELECT (.+) FROM org_context").WillReturnRows(rows)

		got, err := repo.Get(ctx)
		assert.NoError(t, err)
		assert.Equal(t, model.CategoryAgricultural, got.CompanyCategory)
		if assert.NotNil(t, got.MaxDebtAmount) {
			assert.Equal(t, 1500000.0, *got.MaxDebtAmount)
		}
		if assert.NotNil(t, got.MaxDebtTermYears) {
			assert.Equal(t, 5, *got.MaxDebtTermYears)
		}
	})

	t.Run("save upserts", func(t *testing.T) {
		amount := 900000.0
		mock.ExpectExec("INSERT INTO org_context").
			WithArgs("new", amount, nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(ctx, model.OrganizationalContext{
			CompanyCategory: model.CategoryNew,
			MaxDebtAmount:   &amount,
		})
		assert.NoError(t, err)
	})
}
