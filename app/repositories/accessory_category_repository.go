package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/orm"
)

// AccessoryCategoryRepository handles database operations for
// AccessoryCategory. Names are not unique; products are never touched.
type AccessoryCategoryRepository struct {
	db *gorm.DB
}

func NewAccessoryCategoryRepository(db *gorm.DB) *AccessoryCategoryRepository {
	return &AccessoryCategoryRepository{db: db}
}

func (r *AccessoryCategoryRepository) query(ctx context.Context) *orm.Query {
	return orm.New(ctx, r.db).Model(&models.AccessoryCategory{})
}

// Names returns category names, oldest first.
func (r *AccessoryCategoryRepository) Names(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := r.query(ctx).Order("created_at ASC").Pluck("name", &names); err != nil {
		return nil, r.fail(ctx, "accessory_categories.names", err)
	}
	return names, nil
}

// Add stores a new category and returns its id.
func (r *AccessoryCategoryRepository) Add(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("accessory_categories.add", map[string]string{"name": "The name field is required."})
	}

	c := models.AccessoryCategory{ID: uuid.NewString(), Name: name}
	if err := orm.New(ctx, r.db).Create(&c); err != nil {
		return "", r.fail(ctx, "accessory_categories.add", err)
	}
	return c.ID, nil
}

func (r *AccessoryCategoryRepository) Delete(ctx context.Context, id string) error {
	n, err := orm.New(ctx, r.db).Where("id = ?", id).Delete(&models.AccessoryCategory{})
	if err != nil {
		return r.fail(ctx, "accessory_categories.delete", err)
	}
	if n == 0 {
		return apperr.NotFound("accessory_categories.delete", "category not found")
	}
	return nil
}

// IDByName returns the id of the oldest category called name.
func (r *AccessoryCategoryRepository) IDByName(ctx context.Context, name string) (string, error) {
	var c models.AccessoryCategory
	err := r.query(ctx).Where("name = ?", strings.TrimSpace(name)).Order("created_at ASC").First(&c)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.NotFound("accessory_categories.id_by_name", "category not found")
	}
	if err != nil {
		return "", r.fail(ctx, "accessory_categories.id_by_name", err)
	}
	return c.ID, nil
}

// DeleteByName resolves the id first, then deletes that single row; other
// rows sharing the name survive.
func (r *AccessoryCategoryRepository) DeleteByName(ctx context.Context, name string) error {
	id, err := r.IDByName(ctx, name)
	if err != nil {
		return err
	}
	return r.Delete(ctx, id)
}

func (r *AccessoryCategoryRepository) fail(ctx context.Context, op string, err error) error {
	logger.WithCtx(ctx).Error("accessory categories: query failed", "op", op, "error", err)
	return apperr.Backend(op, err)
}
