package controllers

import (
	"context"
	"net/http"

	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

// AccessoryCategoryStore manages accessory sub-category names.
type AccessoryCategoryStore interface {
	Names(ctx context.Context) ([]string, error)
	Add(ctx context.Context, name string) (string, error)
	Delete(ctx context.Context, id string) error
	DeleteByName(ctx context.Context, name string) error
}

type AccessoryCategoryController struct {
	store AccessoryCategoryStore
}

func NewAccessoryCategoryController(store AccessoryCategoryStore) *AccessoryCategoryController {
	return &AccessoryCategoryController{store: store}
}

// Index lists names, oldest first.
func (ac *AccessoryCategoryController) Index(c *ctx.Context) {
	names, err := ac.store.Names(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(names)
}

type accessoryCategoryInput struct {
	Name string `json:"name" validate:"required,max=128"`
}

func (ac *AccessoryCategoryController) Store(c *ctx.Context) {
	var in accessoryCategoryInput
	if !c.BindJSON(&in) {
		return
	}
	id, err := ac.store.Add(c.Context(), in.Name)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(map[string]string{"id": id})
}

// Destroy deletes by id. Products using the name keep it.
func (ac *AccessoryCategoryController) Destroy(c *ctx.Context) {
	if err := ac.store.Delete(c.Context(), c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DestroyByName deletes the oldest category called {name}.
func (ac *AccessoryCategoryController) DestroyByName(c *ctx.Context) {
	if err := ac.store.DeleteByName(c.Context(), c.Param("name")); err != nil {
		c.Fail(err)
		return
	}
	c.Status(http.StatusNoContent)
}
