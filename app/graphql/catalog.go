// Package graphql exposes the catalog as a read-only GraphQL schema.
package graphql

import (
	"context"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/views"
	gql "github.com/shashiranjanraj/storefront/pkg/graphql"
)

// Catalog is the product read side the schema resolves against.
type Catalog interface {
	All(ctx context.Context) ([]models.Product, error)
	ByCategory(ctx context.Context, category string) ([]models.Product, error)
	ByID(ctx context.Context, id string) (*models.Product, error)
	Search(ctx context.Context, term string) ([]models.Product, error)
}

// Showcase picks the products for the home page.
type Showcase interface {
	Featured() []models.Product
}

// AccessoryCategories lists accessory sub-category names.
type AccessoryCategories interface {
	Names(ctx context.Context) ([]string, error)
}

func field(t graphql.Output, get func(models.Product) interface{}) *graphql.Field {
	return &graphql.Field{
		Type: t,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			prod, ok := p.Source.(models.Product)
			if !ok {
				return nil, nil
			}
			return get(prod), nil
		},
	}
}

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":       field(graphql.NewNonNull(graphql.ID), func(p models.Product) interface{} { return p.ID }),
		"name":     field(graphql.NewNonNull(graphql.String), func(p models.Product) interface{} { return p.Name }),
		"category": field(graphql.NewNonNull(graphql.String), func(p models.Product) interface{} { return p.Category }),
		"subCategory": field(graphql.String, func(p models.Product) interface{} {
			if p.SubCategory == nil {
				return nil
			}
			return *p.SubCategory
		}),
		"price": field(graphql.NewNonNull(graphql.Float), func(p models.Product) interface{} { return p.Price }),
		"marketPrice": field(graphql.Float, func(p models.Product) interface{} {
			if p.MarketPrice == nil {
				return nil
			}
			return *p.MarketPrice
		}),
		"showMarketPrice": field(graphql.NewNonNull(graphql.Boolean), func(p models.Product) interface{} {
			return views.NewPriceView(p).ShowMarketPrice
		}),
		"description": field(graphql.String, func(p models.Product) interface{} { return p.Description }),
		"images": field(graphql.NewList(graphql.String), func(p models.Product) interface{} {
			return []string(p.Images)
		}),
		"mainImage": field(graphql.String, func(p models.Product) interface{} { return p.MainImage() }),
		"featured":  field(graphql.NewNonNull(graphql.Boolean), func(p models.Product) interface{} { return p.Featured }),
		"inStock":   field(graphql.NewNonNull(graphql.Boolean), func(p models.Product) interface{} { return p.InStock }),
		"createdAt": field(graphql.String, func(p models.Product) interface{} {
			return p.CreatedAt.UTC().Format(time.RFC3339)
		}),
	},
})

// NewSchema builds the catalog schema:
//
//	products(category: String): [Product]
//	product(id: ID!): Product
//	featured: [Product]
//	search(term: String!): [Product]
//	categories: [String]
//	accessoryCategories: [String]
func NewSchema(catalog Catalog, showcase Showcase, accessories AccessoryCategories) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if c, ok := p.Args["category"].(string); ok && c != "" {
						return catalog.ByCategory(p.Context, c)
					}
					return catalog.All(p.Context)
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					prod, err := catalog.ByID(p.Context, id)
					if err != nil || prod == nil {
						return nil, err
					}
					return *prod, nil
				},
			},
			"featured": &graphql.Field{
				Type: graphql.NewList(productType),
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return showcase.Featured(), nil
				},
			},
			"search": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"term": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					term, _ := p.Args["term"].(string)
					return catalog.Search(p.Context, term)
				},
			},
			"categories": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					names := make([]string, 0, len(models.Categories()))
					for _, c := range models.Categories() {
						names = append(names, string(c))
					}
					return names, nil
				},
			},
			"accessoryCategories": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return accessories.Names(p.Context)
				},
			},
		},
	})
	return gql.NewSchema(query)
}
