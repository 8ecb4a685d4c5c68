package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"credocs/internal/content"
	"credocs/internal/model"
	"credocs/internal/repository"
	"credocs/internal/storage"
	"credocs/internal/validate"
)

var (
	ErrIDRequired       = errors.New("id is required")
	ErrNotFound         = errors.New("document not found")
	ErrReaderNil        = errors.New("reader is nil")
	ErrFilenameRequired = errors.New("filename is required")
	ErrInvalidCategory  = errors.New("invalid company category")
)

// Quota of accepted balances for companies in the "new" category. A
// replacement at an already occupied identity key does not count against it.
const newCompanyBalanceQuota = 3

// quotaScope is the lock key serializing the quota check across the
// per-year identity keys it spans. It contains "|quota" so it can never
// collide with a document identity key.
const quotaScope = "Balance|new|quota"

// ContextUpdate is a partial update of the organizational context. Nil fields
// are left unchanged; negative numeric values clear the stored value.
type ContextUpdate struct {
	CompanyCategory  *string  `json:"company_category"`
	MaxDebtAmount    *float64 `json:"max_debt_amount"`
	MaxDebtTermYears *int     `json:"max_debt_term_years"`
}

// DocumentService defines the use cases for handling credit-application documents.
type DocumentService interface {
	// Validate stores the upload, classifies and validates it, and applies the
	// identity-keyed upsert policy. It returns the resulting document record;
	// a rejected document is returned with IsValid=false, not as an error.
	Validate(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error)

	// List returns all document records, accepted and rejected, newest first.
	List(ctx context.Context) ([]model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Delete removes a document by ID from both storage and repository.
	Delete(ctx context.Context, id string) error

	// GetContext returns the current organizational context.
	GetContext(ctx context.Context) (model.OrganizationalContext, error)

	// SetContext applies a partial update to the organizational context and
	// returns the normalized result.
	SetContext(ctx context.Context, upd ContextUpdate) (model.OrganizationalContext, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store    storage.Storage
	repo     repository.DocumentRepository
	ctxRepo  repository.ContextRepository
	pipeline *validate.Pipeline

	// keys serializes the validate-then-upsert step per identity key so two
	// concurrent uploads of the same logical document cannot both pass the
	// occupancy checks.
	keys sync.Map // string -> *sync.Mutex
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, ctxRepo repository.ContextRepository, pipeline *validate.Pipeline) DocumentService {
	return &documentService{store: store, repo: repo, ctxRepo: ctxRepo, pipeline: pipeline}
}

func (s *documentService) Validate(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if originalFilename == "" {
		return nil, ErrFilenameRequired
	}

	orgCtx, err := s.ctxRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load context: %w", err)
	}

	// Store the blob first under a generated key, then read it back for
	// validation. The read is retried; if the content stays unavailable the
	// upload fails closed and the blob is removed.
	id := uuid.New().String()
	key := filepath.ToSlash(filepath.Join("documents", id+filepath.Ext(originalFilename)))

	if _, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	raw, err := storage.Fetch(ctx, s.store, key)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("fetch content: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("fetch content: %w", err)
	}

	var verdict validate.Verdict
	extracted, err := content.Extract(raw, originalFilename)
	switch {
	case errors.Is(err, content.ErrUnsupportedFormat):
		verdict = validate.UnsupportedFormatVerdict()
	case err != nil:
		return nil, fmt.Errorf("extract content: %w", err)
	default:
		existing, err := s.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("snapshot documents: %w", err)
		}
		verdict = s.pipeline.Evaluate(ctx, validate.Input{
			Extracted: extracted,
			Filename:  originalFilename,
			Context:   orgCtx,
			Existing:  existing,
		})
	}

	doc := &model.Document{
		ID:                id,
		Name:              originalFilename,
		Locator:           key,
		UploadedAt:        time.Now().UTC(),
		IsValid:           verdict.Valid,
		ValidationMessage: verdict.Message,
		DocumentType:      verdict.Type,
		CompanyCategory:   orgCtx.CompanyCategory,
		DocumentYear:      verdict.Year,
		ReasonCode:        verdict.Reason,
	}

	if err := s.upsert(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// upsert applies the identity-keyed storage policy: one accepted document per
// identity key, with the latest rejection logged alongside it.
func (s *documentService) upsert(ctx context.Context, doc *model.Document) error {
	key := doc.IdentityKey()
	unlock := s.lock(key)
	defer unlock()

	existing, err := s.repo.FindByKey(ctx, key)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("find by key: %w", err)
	}

	if !doc.IsValid {
		// An invalid upload never displaces an accepted document; only the
		// latest rejection per key is kept.
		if err := s.repo.SaveRejection(ctx, key, doc); err != nil {
			return fmt.Errorf("save rejection: %w", err)
		}
		return nil
	}

	if existing == nil &&
		doc.DocumentType == model.TypeBalance &&
		doc.CompanyCategory == model.CategoryNew {
		// The quota spans identity keys (one per year), so count-then-insert
		// must also be atomic across keys, not only within the incoming key.
		// Held through the Insert below.
		unlockQuota := s.lock(quotaScope)
		defer unlockQuota()

		n, err := s.repo.CountValid(ctx, model.TypeBalance, model.CategoryNew)
		if err != nil {
			return fmt.Errorf("count balances: %w", err)
		}
		if n >= newCompanyBalanceQuota {
			doc.IsValid = false
			doc.ReasonCode = model.ReasonQuotaExceeded
			doc.ValidationMessage = "New companies can only upload up to 3 balances. You have already uploaded the maximum number."
			if err := s.repo.SaveRejection(ctx, key, doc); err != nil {
				return fmt.Errorf("save rejection: %w", err)
			}
			return nil
		}
	}

	if existing != nil {
		if err := s.repo.ReplaceByKey(ctx, key, doc); err != nil {
			return fmt.Errorf("replace by key: %w", err)
		}
		return nil
	}
	if err := s.repo.Insert(ctx, key, doc); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (s *documentService) lock(key string) func() {
	v, _ := s.keys.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// List returns every stored record, accepted and rejected, newest first.
func (s *documentService) List(ctx context.Context) ([]model.Document, error) {
	return s.repo.List(ctx)
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Delete removes a document from storage, then deletes its record.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	// Delete from storage first; if this fails, keep DB row to avoid orphaned storage reference loss
	if err := s.store.Delete(ctx, doc.Locator); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// GetContext returns the stored organizational context.
func (s *documentService) GetContext(ctx context.Context) (model.OrganizationalContext, error) {
	return s.ctxRepo.Get(ctx)
}

// SetContext merges the update into the stored context, normalizes it and persists it.
func (s *documentService) SetContext(ctx context.Context, upd ContextUpdate) (model.OrganizationalContext, error) {
	cur, err := s.ctxRepo.Get(ctx)
	if err != nil {
		return model.OrganizationalContext{}, err
	}

	if upd.CompanyCategory != nil {
		cat, err := model.ParseCompanyCategory(*upd.CompanyCategory)
		if err != nil {
			return model.OrganizationalContext{}, ErrInvalidCategory
		}
		cur.CompanyCategory = cat
	}
	if upd.MaxDebtAmount != nil {
		v := *upd.MaxDebtAmount
		cur.MaxDebtAmount = &v
	}
	if upd.MaxDebtTermYears != nil {
		v := *upd.MaxDebtTermYears
		cur.MaxDebtTermYears = &v
	}
	cur.Normalize()

	if err := s.ctxRepo.Save(ctx, cur); err != nil {
		return model.OrganizationalContext{}, err
	}
	return cur, nil
}
