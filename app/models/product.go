package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Category is the top-level catalog section a product is listed under.
type Category string

const (
	Women       Category = "Women"
	Men         Category = "Men"
	Kids        Category = "Kids"
	Bags        Category = "Bags"
	Accessories Category = "Accessories"
	Footwear    Category = "Footwear"
	Healthcare  Category = "Healthcare"
	Cosmetics   Category = "Cosmetics"
)

// Categories returns every category in menu order.
func Categories() []Category {
	return []Category{Women, Men, Kids, Bags, Accessories, Footwear, Healthcare, Cosmetics}
}

// ParseCategory matches name case-insensitively against the known categories.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories() {
		if strings.EqualFold(string(c), strings.TrimSpace(name)) {
			return c, true
		}
	}
	return "", false
}

// Product is a catalog row. Images are ordered and the first one is the main
// picture; a persisted product always has at least one.
type Product struct {
	ID          string                      `gorm:"primaryKey;size:36"                json:"id"`
	Name        string                      `gorm:"size:255;not null;index"           json:"name"`
	Category    string                      `gorm:"size:64;not null;index"            json:"category"`
	SubCategory *string                     `gorm:"column:sub_category;size:128"      json:"sub_category,omitempty"`
	Price       float64                     `gorm:"not null"                          json:"price"`
	MarketPrice *float64                    `gorm:"column:market_price"               json:"market_price,omitempty"`
	Description string                      `gorm:"type:text"                         json:"description"`
	Images      datatypes.JSONSlice[string] `gorm:"not null"                          json:"images"`
	Featured    bool                        `gorm:"not null"                          json:"featured"`
	InStock     bool                        `gorm:"column:in_stock;not null"         json:"in_stock"`
	CreatedAt   time.Time                   `gorm:"index"                             json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// MainImage returns the first image URL, or "" for a product without images.
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasDiscount reports whether the market ("was") price should be shown
// struck through next to the selling price.
func (p Product) HasDiscount() bool {
	return p.MarketPrice != nil && *p.MarketPrice > p.Price
}

// NewProduct is the input for creating a product. Category is not checked
// against Categories here; the admin form does that.
type NewProduct struct {
	Name        string   `json:"name"         validate:"required,max=255"`
	Category    string   `json:"category"     validate:"required,max=64"`
	SubCategory *string  `json:"sub_category" validate:"nullable,max=128"`
	Price       float64  `json:"price"        validate:"required,gt=0"`
	MarketPrice *float64 `json:"market_price" validate:"nullable,gt=0"`
	Description string   `json:"description"`
	Images      []string `json:"images"       validate:"required,min=1"`
	Featured    bool     `json:"featured"`
	InStock     *bool    `json:"in_stock"`
}

// ProductPatch is a partial update: nil fields are left untouched. Images
// replaces the whole list. The Clear flags set the nullable columns back to
// NULL and cannot be combined with a value for the same column.
type ProductPatch struct {
	Name        *string   `json:"name"         validate:"nullable,required,max=255"`
	Category    *string   `json:"category"     validate:"nullable,required,max=64"`
	SubCategory *string   `json:"sub_category" validate:"nullable,max=128"`
	Price       *float64  `json:"price"        validate:"nullable,gt=0"`
	MarketPrice *float64  `json:"market_price" validate:"nullable,gt=0"`
	Description *string   `json:"description"`
	Images      *[]string `json:"images"       validate:"nullable,min=1"`
	Featured    *bool     `json:"featured"`
	InStock     *bool     `json:"in_stock"`

	ClearSubCategory bool `json:"clear_sub_category"`
	ClearMarketPrice bool `json:"clear_market_price"`
}

// Conflicts reports columns that are both set and cleared.
func (p ProductPatch) Conflicts() map[string]string {
	errs := map[string]string{}
	if p.ClearSubCategory && p.SubCategory != nil {
		errs["sub_category"] = "The sub_category cannot be set and cleared at once."
	}
	if p.ClearMarketPrice && p.MarketPrice != nil {
		errs["market_price"] = "The market_price cannot be set and cleared at once."
	}
	return errs
}

// Columns returns the column → value map for the fields present in the patch.
func (p ProductPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Name != nil {
		cols["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.SubCategory != nil {
		cols["sub_category"] = *p.SubCategory
	} else if p.ClearSubCategory {
		cols["sub_category"] = nil
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.MarketPrice != nil {
		cols["market_price"] = *p.MarketPrice
	} else if p.ClearMarketPrice {
		cols["market_price"] = nil
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Images != nil {
		cols["images"] = datatypes.JSONSlice[string](*p.Images)
	}
	if p.Featured != nil {
		cols["featured"] = *p.Featured
	}
	if p.InStock != nil {
		cols["in_stock"] = *p.InStock
	}
	return cols
}
