// Package views shapes catalog data for display: price labels, the product
// card page and the demo cart.
package views

import (
	"fmt"

	"github.com/shashiranjanraj/storefront/app/models"
)

// PriceView is the display form of a product's pricing.
type PriceView struct {
	Price           string `json:"price"`
	MarketPrice     string `json:"market_price,omitempty"`
	ShowMarketPrice bool   `json:"show_market_price"`
}

// NewPriceView shows the market price (struck through) only when it is
// strictly greater than the selling price.
func NewPriceView(p models.Product) PriceView {
	v := PriceView{Price: FormatPrice(p.Price)}
	if p.HasDiscount() {
		v.MarketPrice = FormatPrice(*p.MarketPrice)
		v.ShowMarketPrice = true
	}
	return v
}

// FormatPrice renders an amount as dollars with two decimals.
func FormatPrice(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
