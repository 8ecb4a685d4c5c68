package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"credocs/internal/model"
	"credocs/internal/oracle"
	oraclemocks "credocs/internal/oracle/mocks"
	"credocs/internal/repository"
	"credocs/internal/repository/memory"
	repomocks "credocs/internal/repository/mocks"
	"credocs/internal/storage"
	storagemocks "credocs/internal/storage/mocks"
	"credocs/internal/validate"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func fptr(v float64) *float64 { return &v }

type serviceFixture struct {
	store   *storagemocks.MockStorage
	repo    *repomocks.MockDocumentRepository
	ctxRepo *repomocks.MockContextRepository
	oracle  *oraclemocks.MockOracle
	svc     DocumentService
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		store:   new(storagemocks.MockStorage),
		repo:    new(repomocks.MockDocumentRepository),
		ctxRepo: new(repomocks.MockContextRepository),
		oracle:  new(oraclemocks.MockOracle),
	}
	pipe := validate.NewPipeline(f.oracle, validate.AllowAll, fixedNow)
	f.svc = NewDocumentService(f.store, f.repo, f.ctxRepo, pipe)
	return f
}

// stubUpload wires the blob round-trip: Put stores, Get returns the content.
func (f *serviceFixture) stubUpload(body string) {
	f.store.On("Put", mock.Anything, mock.AnythingOfType("string"), mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, nil).Once()
	f.store.On("Get", mock.Anything, mock.AnythingOfType("string")).
		Return(io.NopCloser(strings.NewReader(body)), storage.ObjectInfo{}, nil).Once()
}

const dicoseText = "declaración jurada dicose 2023 de existencias de ganado vacuno y ovino por categoría."

func TestValidate_InsertsAcceptedDocument(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.ctxRepo.On("Get", ctx).
		Return(model.OrganizationalContext{CompanyCategory: model.CategoryAgricultural}, nil)
	f.stubUpload(dicoseText)
	f.repo.On("List", ctx).Return([]model.Document{}, nil)
	f.repo.On("FindByKey", ctx, "DICOSE|agricultural|2023").Return(nil, repository.ErrNotFound)
	f.repo.On("Insert", ctx, "DICOSE|agricultural|2023", mock.AnythingOfType("*model.Document")).
		Return(nil)

	doc, err := f.svc.Validate(ctx, strings.NewReader(dicoseText), "dicose_2023.txt", "text/plain", int64(len(dicoseText)))

	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.True(t, doc.IsValid)
	assert.Equal(t, model.TypeDICOSE, doc.DocumentType)
	assert.Equal(t, model.CategoryAgricultural, doc.CompanyCategory)
	if assert.NotNil(t, doc.DocumentYear) {
		assert.Equal(t, 2023, *doc.DocumentYear)
	}
	assert.Equal(t, "dicose_2023.txt", doc.Name)
	assert.True(t, strings.HasPrefix(doc.Locator, "documents/"))
	f.repo.AssertExpectations(t)
	f.store.AssertExpectations(t)
}

func TestValidate_ReplacesOccupiedIdentityKey(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	previous := &model.Document{ID: "old", DocumentType: model.TypeDICOSE}
	f.ctxRepo.On("Get", ctx).
		Return(model.OrganizationalContext{CompanyCategory: model.CategoryAgricultural}, nil)
	f.stubUpload(dicoseText)
	f.repo.On("List", ctx).Return([]model.Document{}, nil)
	f.repo.On("FindByKey", ctx, "DICOSE|agricultural|2023").Return(previous, nil)
	f.repo.On("ReplaceByKey", ctx, "DICOSE|agricultural|2023", mock.AnythingOfType("*model.Document")).
		Return(nil)

	doc, err := f.svc.Validate(ctx, strings.NewReader(dicoseText), "dicose_2023.txt", "text/plain", int64(len(dicoseText)))

	require.NoError(t, err)
	assert.True(t, doc.IsValid)
	f.repo.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_RejectionNeverDisplacesAccepted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// A DICOSE upload for a regular company is rejected for the wrong category.
	accepted := &model.Document{ID: "kept", DocumentType: model.TypeDICOSE, IsValid: true}
	f.ctxRepo.On("Get", ctx).
		Return(model.OrganizationalContext{CompanyCategory: model.CategoryRegular}, nil)
	f.stubUpload(dicoseText)
	f.repo.On("List", ctx).Return([]model.Document{}, nil)
	f.repo.On("FindByKey", ctx, "DICOSE|regular").Return(accepted, nil)
	f.repo.On("SaveRejection", ctx, "DICOSE|regular", mock.AnythingOfType("*model.Document")).
		Return(nil)

	doc, err := f.svc.Validate(ctx, strings.NewReader(dicoseText), "dicose_2023.txt", "text/plain", int64(len(dicoseText)))

	require.NoError(t, err)
	assert.False(t, doc.IsValid)
	assert.Equal(t, model.ReasonWrongCategory, doc.ReasonCode)
	f.repo.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "ReplaceByKey", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

const balanceText = "balance general al 31 de diciembre de 2023. total assets: 150000. " +
	"total liabilities: 50000. total equity: 100000. net income for the year: 25000. " +
	"all figures expressed in uruguayan pesos and reviewed by the finance team."

func TestValidate_NewCompanyBalanceQuota(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	existing := []model.Document{
		{ID: "b1", DocumentType: model.TypeBalance, IsValid: true},
		{ID: "b2", DocumentType: model.TypeBalance, IsValid: true},
		{ID: "b3", DocumentType: model.TypeBalance, IsValid: true},
	}
	f.ctxRepo.On("Get", ctx).
		Return(model.OrganizationalContext{CompanyCategory: model.CategoryNew}, nil)
	f.stubUpload(balanceText)
	f.repo.On("List", ctx).Return(existing, nil)
	f.oracle.On("CheckAccountingEquation", mock.Anything, mock.Anything).
		Return(oracle.AccountingFigures{
			Assets:      fptr(150000),
			Liabilities: fptr(50000),
			Equity:      fptr(100000),
			Confidence:  oracle.ConfidenceHigh,
		})
	f.repo.On("FindByKey", ctx, "Balance|new|2023").Return(nil, repository.ErrNotFound)
	f.repo.On("CountValid", ctx, model.TypeBalance, model.CategoryNew).Return(3, nil)
	f.repo.On("SaveRejection", ctx, "Balance|new|2023", mock.AnythingOfType("*model.Document")).
		Return(nil)

	doc, err := f.svc.Validate(ctx, strings.NewReader(balanceText), "balance_2023.txt", "text/plain", int64(len(balanceText)))

	require.NoError(t, err)
	assert.False(t, doc.IsValid)
	assert.Equal(t, model.ReasonQuotaExceeded, doc.ReasonCode)
	assert.Contains(t, doc.ValidationMessage, "up to 3 balances")
	f.repo.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_ReplacementAtOccupiedKeyBypassesQuota(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// The quota counts distinct accepted balances; swapping the balance at an
	// already occupied year key is a replacement and is always allowed.
	occupied := &model.Document{ID: "b-2023", DocumentType: model.TypeBalance,
		CompanyCategory: model.CategoryNew, IsValid: true}
	f.ctxRepo.On("Get", ctx).
		Return(model.OrganizationalContext{CompanyCategory: model.CategoryNew}, nil)
	f.stubUpload(balanceText)
	f.repo.On("List", ctx).Return([]model.Document{
		{ID: "b1", DocumentType: model.TypeBalance, IsValid: true},
		{ID: "b2", DocumentType: model.TypeBalance, IsValid: true},
		{ID: "b-2023", DocumentType: model.TypeBalance, IsValid: true},
	}, nil)
	f.oracle.On("CheckAccountingEquation", mock.Anything, mock.Anything).
		Return(oracle.AccountingFigures{
			Assets:      fptr(150000),
			Liabilities: fptr(50000),
			Equity:      fptr(100000),
			Confidence:  oracle.ConfidenceHigh,
		})
	f.repo.On("FindByKey", ctx, "Balance|new|2023").Return(occupied, nil)
	f.repo.On("ReplaceByKey", ctx, "Balance|new|2023", mock.AnythingOfType("*model.Document")).
		Return(nil)

	doc, err := f.svc.Validate(ctx, strings.NewReader(balanceText), "balance_2023.txt", "text/plain", int64(len(balanceText)))

	require.NoError(t, err)
	assert.True(t, doc.IsValid)
	f.repo.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "CountValid", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

// memBlobs is a concurrency-safe in-memory Storage for burst tests, where a
// canned mock cannot hand out a fresh reader per Get.
type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobs() *memBlobs { return &memBlobs{blobs: map[string][]byte{}} }

func (s *memBlobs) Put(_ context.Context, key string, r io.Reader, _ storage.PutObjectOptions) (storage.ObjectInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	s.mu.Lock()
	s.blobs[key] = b
	s.mu.Unlock()
	return storage.ObjectInfo{Key: key, Size: int64(len(b))}, nil
}

func (s *memBlobs) Get(_ context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	s.mu.Lock()
	b, ok := s.blobs[key]
	s.mu.Unlock()
	if !ok {
		return nil, storage.ObjectInfo{}, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(b)), storage.ObjectInfo{Key: key, Size: int64(len(b))}, nil
}

func (s *memBlobs) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

func (s *memBlobs) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", nil
}

// barrierRepo delays every List until all uploads in the burst have reached
// it, so each one evaluates against the same pre-insert snapshot.
type barrierRepo struct {
	*memory.DocumentMemory
	barrier *sync.WaitGroup
}

func (r *barrierRepo) List(ctx context.Context) ([]model.Document, error) {
	r.barrier.Done()
	r.barrier.Wait()
	return r.DocumentMemory.List(ctx)
}

func balanceTextFor(year int) string {
	return fmt.Sprintf("balance general al 31 de diciembre de %d. total assets: 150000. "+
		"total liabilities: 50000. total equity: 100000. net income for the year: 25000. "+
		"all figures expressed in uruguayan pesos and reviewed by the finance team.", year)
}

func TestValidate_ConcurrentNewBalancesRespectQuota(t *testing.T) {
	oracleMock := new(oraclemocks.MockOracle)
	oracleMock.On("CheckAccountingEquation", mock.Anything, mock.Anything).
		Return(oracle.AccountingFigures{
			Assets:      fptr(150000),
			Liabilities: fptr(50000),
			Equity:      fptr(100000),
			Confidence:  oracle.ConfidenceHigh,
		})

	years := []int{2020, 2021, 2022, 2023, 2024}

	var barrier sync.WaitGroup
	barrier.Add(len(years))
	repo := &barrierRepo{DocumentMemory: memory.NewDocumentMemory(), barrier: &barrier}
	ctxRepo := memory.NewContextMemory()
	require.NoError(t, ctxRepo.Save(context.Background(),
		model.OrganizationalContext{CompanyCategory: model.CategoryNew}))

	pipe := validate.NewPipeline(oracleMock, validate.AllowAll, fixedNow)
	svc := NewDocumentService(newMemBlobs(), repo, ctxRepo, pipe)

	// Five valid balances land at five distinct year keys at once; the quota
	// must still admit exactly three, however the goroutines interleave.
	results := make([]*model.Document, len(years))
	errs := make([]error, len(years))
	var wg sync.WaitGroup
	for i, year := range years {
		wg.Add(1)
		go func(i, year int) {
			defer wg.Done()
			body := balanceTextFor(year)
			results[i], errs[i] = svc.Validate(context.Background(),
				strings.NewReader(body), fmt.Sprintf("balance_%d.txt", year), "text/plain", int64(len(body)))
		}(i, year)
	}
	wg.Wait()

	accepted := 0
	for i := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		if results[i].IsValid {
			accepted++
		} else {
			assert.Equal(t, model.ReasonQuotaExceeded, results[i].ReasonCode)
		}
	}
	assert.Equal(t, newCompanyBalanceQuota, accepted)

	n, err := repo.CountValid(context.Background(), model.TypeBalance, model.CategoryNew)
	require.NoError(t, err)
	assert.Equal(t, newCompanyBalanceQuota, n)
}

func TestValidate_UnsupportedFormat(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.ctxRepo.On("Get", ctx).
		Return(model.OrganizationalContext{CompanyCategory: model.CategoryAgricultural}, nil)
	f.stubUpload("binary bytes")
	f.repo.On("FindByKey", ctx, "Unrecognized|agricultural").Return(nil, repository.ErrNotFound)
	f.repo.On("SaveRejection", ctx, "Unrecognized|agricultural", mock.AnythingOfType("*model.Document")).
		Return(nil)

	doc, err := f.svc.Validate(ctx, strings.NewReader("binary bytes"), "photo.png", "image/png", 12)

	require.NoError(t, err)
	assert.False(t, doc.IsValid)
	assert.Equal(t, model.ReasonUnsupportedFormat, doc.ReasonCode)
	assert.Contains(t, doc.ValidationMessage, "Unsupported file format")
	f.repo.AssertNotCalled(t, "List", mock.Anything)
	f.repo.AssertExpectations(t)
}

func TestValidate_FetchFailureRollsBackBlob(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.ctxRepo.On("Get", ctx).
		Return(model.OrganizationalContext{}, nil)
	f.store.On("Put", mock.Anything, mock.AnythingOfType("string"), mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, nil)
	f.store.On("Get", mock.Anything, mock.AnythingOfType("string")).
		Return(nil, storage.ObjectInfo{}, errors.New("unavailable"))
	f.store.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	doc, err := f.svc.Validate(ctx, strings.NewReader("x"), "a.txt", "text/plain", 1)

	assert.Error(t, err)
	assert.Nil(t, doc)
	f.store.AssertCalled(t, "Delete", mock.Anything, mock.AnythingOfType("string"))
	f.repo.AssertNotCalled(t, "SaveRejection", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_InputGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Validate(ctx, nil, "a.txt", "text/plain", 1)
	assert.ErrorIs(t, err, ErrReaderNil)

	_, err = f.svc.Validate(ctx, strings.NewReader("x"), "", "text/plain", 1)
	assert.ErrorIs(t, err, ErrFilenameRequired)
}

func TestGet(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		f.repo.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil).Once()
		doc, err := f.svc.Get(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
	})

	t.Run("not found", func(t *testing.T) {
		f.repo.On("FindByID", ctx, "missing").Return(nil, repository.ErrNotFound).Once()
		_, err := f.svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := f.svc.Get(ctx, "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes blob then row", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, "doc-1").
			Return(&model.Document{ID: "doc-1", Locator: "documents/doc-1.txt"}, nil)
		f.store.On("Delete", ctx, "documents/doc-1.txt").Return(nil)
		f.repo.On("DeleteByID", ctx, "doc-1").Return(nil)

		assert.NoError(t, f.svc.Delete(ctx, "doc-1"))
		f.repo.AssertExpectations(t)
		f.store.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, "missing").Return(nil, repository.ErrNotFound)

		assert.ErrorIs(t, f.svc.Delete(ctx, "missing"), ErrNotFound)
	})

	t.Run("storage failure keeps the row", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, "doc-1").
			Return(&model.Document{ID: "doc-1", Locator: "documents/doc-1.txt"}, nil)
		f.store.On("Delete", ctx, "documents/doc-1.txt").Return(errors.New("io error"))

		assert.Error(t, f.svc.Delete(ctx, "doc-1"))
		f.repo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
	})
}

func TestSetContext(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update preserves other fields", func(t *testing.T) {
		f := newFixture()
		amount := 500000.0
		f.ctxRepo.On("Get", ctx).
			Return(model.OrganizationalContext{CompanyCategory: model.CategoryAgricultural, MaxDebtAmount: &amount}, nil)
		f.ctxRepo.On("Save", ctx, mock.AnythingOfType("model.OrganizationalContext")).Return(nil)

		term := 5
		got, err := f.svc.SetContext(ctx, ContextUpdate{MaxDebtTermYears: &term})

		require.NoError(t, err)
		assert.Equal(t, model.CategoryAgricultural, got.CompanyCategory)
		require.NotNil(t, got.MaxDebtAmount)
		assert.Equal(t, 500000.0, *got.MaxDebtAmount)
		require.NotNil(t, got.MaxDebtTermYears)
		assert.Equal(t, 5, *got.MaxDebtTermYears)
	})

	t.Run("negative values clear", func(t *testing.T) {
		f := newFixture()
		amount := 500000.0
		f.ctxRepo.On("Get", ctx).
			Return(model.OrganizationalContext{MaxDebtAmount: &amount}, nil)
		f.ctxRepo.On("Save", ctx, mock.AnythingOfType("model.OrganizationalContext")).Return(nil)

		clear := -1.0
		got, err := f.svc.SetContext(ctx, ContextUpdate{MaxDebtAmount: &clear})

		require.NoError(t, err)
		assert.Nil(t, got.MaxDebtAmount)
	})

	t.Run("invalid category", func(t *testing.T) {
		f := newFixture()
		f.ctxRepo.On("Get", ctx).Return(model.OrganizationalContext{}, nil)

		bad := "cooperative"
		_, err := f.svc.SetContext(ctx, ContextUpdate{CompanyCategory: &bad})

		assert.ErrorIs(t, err, ErrInvalidCategory)
		f.ctxRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
