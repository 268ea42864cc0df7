package seeders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/database/seeders"
	"github.com/shashiranjanraj/storefront/pkg/database"
)

func TestRunAllSeedsOnce(t *testing.T) {
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.AccessoryCategory{}))

	ctx := context.Background()
	ran, err := seeders.RunAll(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"accessory_categories", "products"}, ran)

	var products, categories int64
	db.Model(&models.Product{}).Count(&products)
	db.Model(&models.AccessoryCategory{}).Count(&categories)
	assert.EqualValues(t, 8, products)
	assert.EqualValues(t, 4, categories)

	_, err = seeders.RunAll(ctx, db)
	require.NoError(t, err)
	db.Model(&models.Product{}).Count(&products)
	db.Model(&models.AccessoryCategory{}).Count(&categories)
	assert.EqualValues(t, 8, products)
	assert.EqualValues(t, 4, categories)

	var sneakers models.Product
	require.NoError(t, db.Where("name = ?", "Running Sneakers").First(&sneakers).Error)
	assert.False(t, sneakers.InStock)
}
