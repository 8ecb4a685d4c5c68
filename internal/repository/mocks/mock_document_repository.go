package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"credocs/internal/model"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) List(ctx context.Context) ([]model.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByKey(ctx context.Context, key string) (*model.Document, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Insert(ctx context.Context, key string, doc *model.Document) error {
	args := m.Called(ctx, key, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) ReplaceByKey(ctx context.Context, key string, doc *model.Document) error {
	args := m.Called(ctx, key, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) SaveRejection(ctx context.Context, key string, doc *model.Document) error {
	args := m.Called(ctx, key, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) CountValid(ctx context.Context, t model.DocumentType, cat model.CompanyCategory) (int, error) {
	args := m.Called(ctx, t, cat)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentRepository) DeleteByID(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockContextRepository struct {
	mock.Mock
}

func (m *MockContextRepository) Get(ctx context.Context) (model.OrganizationalContext, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.OrganizationalContext), args.Error(1)
}

func (m *MockContextRepository) Save(ctx context.Context, c model.OrganizationalContext) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
