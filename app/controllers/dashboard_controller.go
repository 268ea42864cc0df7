package controllers

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

const recentOnDashboard = 5

// CatalogStats is what the admin dashboard summarizes.
type CatalogStats interface {
	CountByCategory(ctx context.Context) (map[string]int64, error)
	Featured(ctx context.Context, limit int) ([]models.Product, error)
}

type DashboardController struct {
	stats CatalogStats
}

func NewDashboardController(stats CatalogStats) *DashboardController {
	return &DashboardController{stats: stats}
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// Index returns the product total, a count per catalog section (zero for
// empty sections, in menu order) and the newest products.
func (dc *DashboardController) Index(c *ctx.Context) {
	counts, err := dc.stats.CountByCategory(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	recent, err := dc.stats.Featured(c.Context(), recentOnDashboard)
	if err != nil {
		c.Fail(err)
		return
	}
	if recent == nil {
		recent = []models.Product{}
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	sections := make([]categoryCount, 0, len(models.Categories()))
	for _, cat := range models.Categories() {
		sections = append(sections, categoryCount{Category: string(cat), Count: counts[string(cat)]})
	}

	c.Success(map[string]any{
		"total":       total,
		"by_category": sections,
		"recent":      recent,
	})
}
