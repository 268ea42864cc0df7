package views

import "math"

const (
	freeShippingOver = 99.0
	flatShipping     = 9.99
)

// CartLine is one row of the cart.
type CartLine struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
	Total    float64 `json:"total"`
}

// Cart is the cart page model. Shipping is free above $99.
type Cart struct {
	Items    []CartLine `json:"items"`
	Count    int        `json:"count"`
	Subtotal float64    `json:"subtotal"`
	Shipping float64    `json:"shipping"`
	Total    float64    `json:"total"`
}

// NewCart totals lines.
func NewCart(lines []CartLine) Cart {
	c := Cart{Items: make([]CartLine, 0, len(lines))}
	for _, l := range lines {
		l.Total = round2(l.Price * float64(l.Quantity))
		c.Items = append(c.Items, l)
		c.Subtotal += l.Total
	}
	c.Subtotal = round2(c.Subtotal)
	c.Count = len(c.Items)
	if c.Count > 0 && c.Subtotal <= freeShippingOver {
		c.Shipping = flatShipping
	}
	c.Total = round2(c.Subtotal + c.Shipping)
	return c
}

// DemoCart is the static cart shown until checkout exists.
func DemoCart() Cart {
	return NewCart([]CartLine{
		{ID: 1, Name: "Women's Denim Jacket", Price: 349.50, Quantity: 1,
			Image: "https://images.unsplash.com/photo-1544441893-675973e31985?auto=format&fit=crop&w=300&q=80"},
		{ID: 2, Name: "Men's Logo T-Shirt", Price: 188.30, Quantity: 2,
			Image: "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?auto=format&fit=crop&w=300&q=80"},
	})
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
