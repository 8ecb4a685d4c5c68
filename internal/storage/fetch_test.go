package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"credocs/internal/storage"
	"credocs/internal/storage/mocks"
)

func TestFetch_SucceedsFirstAttempt(t *testing.T) {
	ms := new(mocks.MockStorage)
	ms.On("Get", mock.Anything, "documents/a.txt").
		Return(io.NopCloser(strings.NewReader("hello")), storage.ObjectInfo{Key: "documents/a.txt"}, nil).
		Once()

	raw, err := storage.Fetch(context.Background(), ms, "documents/a.txt")

	assert.NoError(t, err)
	assert.Equal(t, "hello", string(raw))
	ms.AssertExpectations(t)
}

func TestFetch_RetriesThenSucceeds(t *testing.T) {
	ms := new(mocks.MockStorage)
	ms.On("Get", mock.Anything, "documents/a.txt").
		Return(nil, storage.ObjectInfo{}, errors.New("connection reset")).
		Twice()
	ms.On("Get", mock.Anything, "documents/a.txt").
		Return(io.NopCloser(strings.NewReader("late")), storage.ObjectInfo{}, nil).
		Once()

	raw, err := storage.Fetch(context.Background(), ms, "documents/a.txt")

	assert.NoError(t, err)
	assert.Equal(t, "late", string(raw))
	ms.AssertExpectations(t)
}

func TestFetch_FailsAfterAllAttempts(t *testing.T) {
	ms := new(mocks.MockStorage)
	ms.On("Get", mock.Anything, "documents/a.txt").
		Return(nil, storage.ObjectInfo{}, errors.New("unavailable")).
		Times(3)

	raw, err := storage.Fetch(context.Background(), ms, "documents/a.txt")

	assert.Error(t, err)
	assert.Nil(t, raw)
	assert.Contains(t, err.Error(), "after 3 attempts")
	ms.AssertExpectations(t)
}

func TestFetch_StopsOnContextCancel(t *testing.T) {
	ms := new(mocks.MockStorage)
	ms.On("Get", mock.Anything, "documents/a.txt").
		Return(nil, storage.ObjectInfo{}, errors.New("unavailable"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.Fetch(ctx, ms, "documents/a.txt")

	assert.ErrorIs(t, err, context.Canceled)
}
