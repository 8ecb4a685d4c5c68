package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"credocs/internal/model"
	"credocs/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Validate(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error) {
	args := m.Called(ctx, r, originalFilename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context) ([]model.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentService) GetContext(ctx context.Context) (model.OrganizationalContext, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.OrganizationalContext), args.Error(1)
}

func (m *MockDocumentService) SetContext(ctx context.Context, upd service.ContextUpdate) (model.OrganizationalContext, error) {
	args := m.Called(ctx, upd)
	return args.Get(0).(model.OrganizationalContext), args.Error(1)
}
