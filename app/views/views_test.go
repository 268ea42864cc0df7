package views_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/views"
)

func ptr[T any](v T) *T { return &v }

func TestPriceViewStrikesOnlyHigherMarketPrice(t *testing.T) {
	cases := []struct {
		name   string
		market *float64
		show   bool
	}{
		{"none", nil, false},
		{"higher", ptr(59.99), true},
		{"equal", ptr(40.0), false},
		{"lower", ptr(30.0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := views.NewPriceView(models.Product{Price: 40, MarketPrice: tc.market})
			assert.Equal(t, "$40.00", v.Price)
			assert.Equal(t, tc.show, v.ShowMarketPrice)
			if tc.show {
				assert.Equal(t, "$59.99", v.MarketPrice)
			} else {
				assert.Empty(t, v.MarketPrice)
			}
		})
	}
}

func TestRenderProductCard(t *testing.T) {
	html, err := views.RenderProductCard(models.Product{
		ID:          "p1",
		Name:        "Silk <Scarf>",
		Price:       25,
		MarketPrice: ptr(40.0),
		Images:      []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
		InStock:     true,
	})
	require.NoError(t, err)

	body := string(html)
	assert.Contains(t, body, `<s class="market-price">$40.00</s>`)
	assert.Contains(t, body, `<span class="price">$25.00</span>`)
	assert.Contains(t, body, "Silk &lt;Scarf&gt;")
	assert.NotContains(t, body, "Out of stock")

	html, err = views.RenderProductCard(models.Product{Name: "Cap", Price: 10, MarketPrice: ptr(5.0)})
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<s class")
	assert.Contains(t, string(html), "Image not available")
	assert.Contains(t, string(html), "Out of stock")
}

func TestDemoCartTotals(t *testing.T) {
	c := views.DemoCart()

	assert.Equal(t, 2, c.Count)
	assert.Equal(t, 376.6, c.Items[1].Total)
	assert.Equal(t, 726.1, c.Subtotal)
	assert.Zero(t, c.Shipping)
	assert.Equal(t, 726.1, c.Total)
}

func TestCartShippingBelowThreshold(t *testing.T) {
	c := views.NewCart([]views.CartLine{{ID: 1, Name: "Socks", Price: 12.5, Quantity: 2}})

	assert.Equal(t, 25.0, c.Subtotal)
	assert.Equal(t, 9.99, c.Shipping)
	assert.Equal(t, 34.99, c.Total)
	assert.Zero(t, views.NewCart(nil).Shipping)
}
