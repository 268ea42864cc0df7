// Package migrations registers the storefront schema. Import it for its
// side effect before running migration.New(db).Run().
package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

func init() {
	migration.Register("20250301000000_create_products_table", &CreateProductsTable{})
	migration.Register("20250301000001_create_accessory_categories_table", &CreateAccessoryCategoriesTable{})
}

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("products")
}

type CreateAccessoryCategoriesTable struct{}

func (m *CreateAccessoryCategoriesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.AccessoryCategory{})
}

func (m *CreateAccessoryCategoriesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("accessory_categories")
}
