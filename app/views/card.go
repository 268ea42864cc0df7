package views

import (
	"bytes"
	"html/template"

	"github.com/shashiranjanraj/storefront/app/models"
)

var cardTemplate = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Name}}</title></head>
<body>
<article class="product-card" data-id="{{.ID}}">
  <div class="product-image">
    {{- range $i, $src := .Images}}
    <img src="{{$src}}" alt="{{$.Name}}"{{if $i}} hidden{{end}}>
    {{- else}}
    <div class="card-image-error">Image not available</div>
    {{- end}}
  </div>
  <div class="product-info">
    <h3 class="product-name">{{.Name}}</h3>
    <div class="product-price">
      {{- if .Price.ShowMarketPrice}}
      <s class="market-price">{{.Price.MarketPrice}}</s>
      {{- end}}
      <span class="price">{{.Price.Price}}</span>
    </div>
    {{- if .Description}}
    <p class="product-description">{{.Description}}</p>
    {{- end}}
    {{- if not .InStock}}
    <p class="out-of-stock">Out of stock</p>
    {{- end}}
  </div>
</article>
</body>
</html>
`))

type cardData struct {
	ID          string
	Name        string
	Description string
	Images      []string
	InStock     bool
	Price       PriceView
}

// RenderProductCard renders the standalone HTML card for p.
func RenderProductCard(p models.Product) ([]byte, error) {
	var buf bytes.Buffer
	err := cardTemplate.Execute(&buf, cardData{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Images:      p.Images,
		InStock:     p.InStock,
		Price:       NewPriceView(p),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
