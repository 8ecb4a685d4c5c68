package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credocs/internal/model"
	"credocs/internal/repository"
)

func doc(id string, valid bool, uploadedAt time.Time) *model.Document {
	return &model.Document{
		ID:              id,
		Name:            id + ".txt",
		Locator:         "documents/" + id,
		UploadedAt:      uploadedAt,
		IsValid:         valid,
		DocumentType:    model.TypeBalance,
		CompanyCategory: model.CategoryAgricultural,
	}
}

func TestDocumentMemory(t *testing.T) {
	ctx := context.Background()
	r := NewDocumentMemory()
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Insert(ctx, "k1", doc("a", true, t0)))
	require.NoError(t, r.SaveRejection(ctx, "k1", doc("b", false, t0.Add(time.Hour))))

	// primary untouched by the rejection
	got, err := r.FindByKey(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	// list newest first, rejections included
	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)

	// a later rejection replaces the previous one at the same key
	require.NoError(t, r.SaveRejection(ctx, "k1", doc("c", false, t0.Add(2*time.Hour))))
	list, err = r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)

	// replace swaps the primary entry
	require.NoError(t, r.ReplaceByKey(ctx, "k1", doc("d", true, t0.Add(3*time.Hour))))
	got, err = r.FindByKey(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "d", got.ID)

	n, err := r.CountValid(ctx, model.TypeBalance, model.CategoryAgricultural)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// delete by id, then not found
	require.NoError(t, r.DeleteByID(ctx, "d"))
	assert.ErrorIs(t, r.DeleteByID(ctx, "d"), repository.ErrNotFound)
	_, err = r.FindByKey(ctx, "k1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	r.Clear()
	list, err = r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestContextMemory(t *testing.T) {
	ctx := context.Background()
	r := NewContextMemory()

	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.OrganizationalContext{}, got)

	amount := 500000.0
	require.NoError(t, r.Save(ctx, model.OrganizationalContext{
		CompanyCategory: model.CategoryAgricultural,
		MaxDebtAmount:   &amount,
	}))
	got, err = r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryAgricultural, got.CompanyCategory)
	require.NotNil(t, got.MaxDebtAmount)
	assert.Equal(t, 500000.0, *got.MaxDebtAmount)
}
