package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
)

func TestAccessoryCategories(t *testing.T) {
	db := newDB(t)
	repo := repositories.NewAccessoryCategoryRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Watches", " Belts ", "Sunglasses"} {
		_, err := repo.Add(ctx, name)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	got, err := repo.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Watches", "Belts", "Sunglasses"}, got, "oldest first, trimmed")

	_, err = repo.Add(ctx, "  ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeleteByNameRemovesOneRow(t *testing.T) {
	db := newDB(t)
	repo := repositories.NewAccessoryCategoryRepository(db)
	ctx := context.Background()

	first, err := repo.Add(ctx, "Watches")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = repo.Add(ctx, "Watches")
	require.NoError(t, err)

	id, err := repo.IDByName(ctx, "Watches")
	require.NoError(t, err)
	assert.Equal(t, first, id)

	require.NoError(t, repo.DeleteByName(ctx, "Watches"))
	got, err := repo.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Watches"}, got, "duplicates are separate rows")

	_, err = repo.IDByName(ctx, "Scarves")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(repo.DeleteByName(ctx, "Scarves"), apperr.KindNotFound))
}

func TestDeletingCategoryKeepsProducts(t *testing.T) {
	db := newDB(t)
	categories := repositories.NewAccessoryCategoryRepository(db)
	ctx := context.Background()

	_, err := categories.Add(ctx, "Watches")
	require.NoError(t, err)
	seed(t, db, models.Product{Name: "Chrono", Category: "Accessories", SubCategory: ptr("Watches"), Price: 200})

	require.NoError(t, categories.DeleteByName(ctx, "Watches"))

	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", "Chrono").Error)
	require.NotNil(t, p.SubCategory)
	assert.Equal(t, "Watches", *p.SubCategory)
}
