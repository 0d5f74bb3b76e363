package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localhq/localservices/internal/database/testutil"
)

func TestCategoryCreateDerivesSlug(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewCategoryService(db)
	ctx := context.Background()

	category, err := svc.Create(ctx, CategoryCreateInput{Name: "Pest Control"})
	require.NoError(t, err)
	assert.Equal(t, "pest-control", category.Slug)
	assert.Equal(t, 100, category.SortOrder)

	found, err := svc.GetBySlug(ctx, "pest-control")
	require.NoError(t, err)
	assert.Equal(t, category.ID, found.ID)
}

func TestCategoryCreateRejectsDuplicates(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewCategoryService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, CategoryCreateInput{Name: "Plumbing"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CategoryCreateInput{Name: "Plumbing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCategoryListActiveOrdersBySortOrder(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewCategoryService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, CategoryCreateInput{Name: "Zeta", SortOrder: 20})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CategoryCreateInput{Name: "Alpha", SortOrder: 10})
	require.NoError(t, err)
	hidden, err := svc.Create(ctx, CategoryCreateInput{Name: "Hidden", SortOrder: 5})
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, hidden.ID, CategoryUpdateInput{IsActive: &inactive})
	require.NoError(t, err)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Alpha", active[0].Name)
	assert.Equal(t, "Zeta", active[1].Name)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
