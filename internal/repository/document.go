package repository

import (
	"context"

	"credocs/internal/model"
)

// DocumentRepository persists validated and rejected documents.
//
// The store distinguishes two kinds of rows sharing one identity key:
// the primary entry (at most one per key, mutated only through Insert and
// ReplaceByKey according to the upsert policy) and the rejection entry
// (the latest invalid attempt at that key, kept so the most recent failure
// stays queryable without ever displacing a valid document).
type DocumentRepository interface {
	// List returns every current document (primary entries plus latest
	// rejections) sorted by upload time, newest first.
	List(ctx context.Context) ([]model.Document, error)

	// FindByID returns any current document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByKey returns the primary entry at the identity key, or ErrNotFound.
	FindByKey(ctx context.Context, key string) (*model.Document, error)

	// Insert stores a new primary entry at a key that has none.
	Insert(ctx context.Context, key string, doc *model.Document) error

	// ReplaceByKey swaps the primary entry at the key for doc.
	ReplaceByKey(ctx context.Context, key string, doc *model.Document) error

	// SaveRejection records doc as the latest rejected attempt at the key,
	// replacing any previous rejection there.
	SaveRejection(ctx context.Context, key string, doc *model.Document) error

	// CountValid counts valid primary entries of the given type and category.
	CountValid(ctx context.Context, t model.DocumentType, cat model.CompanyCategory) (int, error)

	// DeleteByID removes a document; ErrNotFound when no row matches.
	DeleteByID(ctx context.Context, id string) error
}

// ContextRepository persists the single organizational context record.
type ContextRepository interface {
	// Get returns the current context; a zero value when never set.
	Get(ctx context.Context) (model.OrganizationalContext, error)

	// Save overwrites the stored context.
	Save(ctx context.Context, c model.OrganizationalContext) error
}
