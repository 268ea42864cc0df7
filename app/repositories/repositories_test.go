package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/database"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.AccessoryCategory{}))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// seed inserts products with strictly increasing created_at, in the given order.
func seed(t *testing.T, db *gorm.DB, products ...models.Product) []models.Product {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour)
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = products[i].Name
		}
		if len(products[i].Images) == 0 {
			products[i].Images = []string{"https://cdn.test/" + products[i].ID + ".jpg"}
		}
		products[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		products[i].UpdatedAt = products[i].CreatedAt
		require.NoError(t, db.WithContext(context.Background()).Create(&products[i]).Error)
	}
	return products
}

func ptr[T any](v T) *T { return &v }
