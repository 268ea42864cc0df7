package seeders

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/realtime"
)

func init() {
	Register("accessory_categories", SeedAccessoryCategories)
	Register("products", SeedProducts)
}

func ptr[T any](v T) *T { return &v }

const unsplash = "https://images.unsplash.com/"

var demoProducts = []models.NewProduct{
	{Name: "Women's Denim Jacket", Category: string(models.Women), Price: 349.50, MarketPrice: ptr(420.0),
		Description: "Classic fit jacket in washed denim.", Featured: true,
		Images: []string{unsplash + "photo-1544441893-675973e31985?auto=format&fit=crop&w=800&q=80"}},
	{Name: "Floral Summer Dress", Category: string(models.Women), Price: 129.00,
		Description: "Light cotton dress with a floral print.", Featured: true,
		Images: []string{unsplash + "photo-1515372039744-b8f02a3ae446?auto=format&fit=crop&w=800&q=80"}},
	{Name: "Men's Logo T-Shirt", Category: string(models.Men), Price: 188.30,
		Description: "Heavyweight cotton tee with a chest logo.", Featured: true,
		Images: []string{unsplash + "photo-1521572163474-6864f9cf17ab?auto=format&fit=crop&w=800&q=80"}},
	{Name: "Slim Chino Trousers", Category: string(models.Men), Price: 89.90, MarketPrice: ptr(89.90),
		Description: "Stretch chinos with a tapered leg.",
		Images:      []string{unsplash + "photo-1473966968600-fa801b869a1a?auto=format&fit=crop&w=800&q=80"}},
	{Name: "Kids Rain Jacket", Category: string(models.Kids), Price: 45.00,
		Description: "Waterproof shell with a packable hood.",
		Images:      []string{unsplash + "photo-1503919545889-aef636e10ad4?auto=format&fit=crop&w=800&q=80"}},
	{Name: "Leather Tote Bag", Category: string(models.Bags), Price: 210.00, MarketPrice: ptr(260.0),
		Description: "Full-grain leather tote with an inner pocket.", Featured: true,
		Images: []string{unsplash + "photo-1584917865442-de89df76afd3?auto=format&fit=crop&w=800&q=80"}},
	{Name: "Silver Watch", Category: string(models.Accessories), SubCategory: ptr("Watches"), Price: 150.00,
		Description: "Minimal steel watch with a mesh strap.",
		Images:      []string{unsplash + "photo-1524592094714-0f0654e20314?auto=format&fit=crop&w=800&q=80"}},
	{Name: "Running Sneakers", Category: string(models.Footwear), Price: 99.99, InStock: ptr(false),
		Description: "Lightweight trainers with a cushioned sole.",
		Images:      []string{unsplash + "photo-1542291026-7eec264c27ff?auto=format&fit=crop&w=800&q=80"}},
}

var demoAccessoryCategories = []string{"Watches", "Belts", "Sunglasses", "Jewelry"}

// SeedProducts inserts the demo catalog into an empty products table.
func SeedProducts(ctx context.Context, db *gorm.DB) error {
	var n int64
	if err := db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		logger.WithCtx(ctx).Info("seeder: products already present, skipping", "count", n)
		return nil
	}

	// No live subscribers exist during seeding.
	repo := repositories.NewProductRepository(db, realtime.NewMemory())
	for _, p := range demoProducts {
		if _, err := repo.Add(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// SeedAccessoryCategories inserts the demo accessory sub-categories into an
// empty table.
func SeedAccessoryCategories(ctx context.Context, db *gorm.DB) error {
	repo := repositories.NewAccessoryCategoryRepository(db)
	existing, err := repo.Names(ctx)
	if err != nil || len(existing) > 0 {
		return err
	}
	for _, name := range demoAccessoryCategories {
		if _, err := repo.Add(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
