// Package memory holds documents and the organizational context in process
// memory. It backs tests and local development; the lifecycle is explicit
// (starts empty, Clear resets) so no state hides between runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"credocs/internal/model"
	"credocs/internal/repository"
)

// DocumentMemory is an in-memory repository.DocumentRepository.
// Safe for concurrent use.
type DocumentMemory struct {
	mu       sync.RWMutex
	primary  map[string]model.Document // identity key → primary entry
	rejected map[string]model.Document // identity key → latest rejection
}

// NewDocumentMemory returns an empty in-memory document store.
func NewDocumentMemory() *DocumentMemory {
	return &DocumentMemory{
		primary:  map[string]model.Document{},
		rejected: map[string]model.Document{},
	}
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

// Clear resets the store to empty.
func (r *DocumentMemory) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.primary = map[string]model.Document{}
	r.rejected = map[string]model.Document{}
}

func (r *DocumentMemory) List(_ context.Context) ([]model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Document, 0, len(r.primary)+len(r.rejected))
	for _, d := range r.primary {
		out = append(out, d)
	}
	for _, d := range r.rejected {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *DocumentMemory) FindByID(_ context.Context, id string) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range []map[string]model.Document{r.primary, r.rejected} {
		for _, d := range m {
			if d.ID == id {
				out := d
				return &out, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (r *DocumentMemory) FindByKey(_ context.Context, key string) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.primary[key]; ok {
		out := d
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (r *DocumentMemory) Insert(_ context.Context, key string, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.primary[key] = *doc
	return nil
}

func (r *DocumentMemory) ReplaceByKey(_ context.Context, key string, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.primary[key] = *doc
	return nil
}

func (r *DocumentMemory) SaveRejection(_ context.Context, key string, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[key] = *doc
	return nil
}

func (r *DocumentMemory) CountValid(_ context.Context, t model.DocumentType, cat model.CompanyCategory) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, d := range r.primary {
		if d.IsValid && d.DocumentType == t && d.CompanyCategory == cat {
			n++
		}
	}
	return n, nil
}

func (r *DocumentMemory) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, d := range r.primary {
		if d.ID == id {
			delete(r.primary, key)
			return nil
		}
	}
	for key, d := range r.rejected {
		if d.ID == id {
			delete(r.rejected, key)
			return nil
		}
	}
	return repository.ErrNotFound
}

// ContextMemory is an in-memory repository.ContextRepository.
type ContextMemory struct {
	mu  sync.RWMutex
	ctx model.OrganizationalContext
}

// NewContextMemory returns an empty in-memory context store.
func NewContextMemory() *ContextMemory {
	return &ContextMemory{}
}

var _ repository.ContextRepository = (*ContextMemory)(nil)

func (r *ContextMemory) Get(_ context.Context) (model.OrganizationalContext, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ctx, nil
}

func (r *ContextMemory) Save(_ context.Context, c model.OrganizationalContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = c
	return nil
}
