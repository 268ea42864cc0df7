package repositories

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"github.com/shashiranjanraj/storefront/pkg/realtime"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

const productsTable = "products"

// Page is one zero-based page of products plus the exact total.
type Page struct {
	Items []models.Product `json:"items"`
	orm.Pagination
}

// ProductRepository handles database operations for Product and publishes a
// realtime.Change after every successful write.
type ProductRepository struct {
	db   *gorm.DB
	feed realtime.Feed
}

func NewProductRepository(db *gorm.DB, feed realtime.Feed) *ProductRepository {
	return &ProductRepository{db: db, feed: feed}
}

func (r *ProductRepository) query(ctx context.Context) *orm.Query {
	return orm.New(ctx, r.db).Model(&models.Product{})
}

// All returns every product, newest first.
func (r *ProductRepository) All(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.query(ctx).Order("created_at DESC").Get(&products); err != nil {
		return nil, r.fail(ctx, "products.all", err)
	}
	return products, nil
}

// ByCategory returns the products whose category equals category exactly.
func (r *ProductRepository) ByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	err := r.query(ctx).Where("category = ?", category).Order("created_at DESC").Get(&products)
	if err != nil {
		return nil, r.fail(ctx, "products.by_category", err)
	}
	return products, nil
}

// ByID returns nil, nil when no product has the given id.
func (r *ProductRepository) ByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := r.query(ctx).Where("id = ?", id).First(&p)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.fail(ctx, "products.by_id", err)
	}
	return &p, nil
}

// Add inserts a product and returns its id. Input is validated before the
// database is touched.
func (r *ProductRepository) Add(ctx context.Context, in models.NewProduct) (string, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return "", apperr.Validation("products.add", errs)
	}

	p := models.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Category:    in.Category,
		SubCategory: in.SubCategory,
		Price:       in.Price,
		MarketPrice: in.MarketPrice,
		Description: in.Description,
		Images:      in.Images,
		Featured:    in.Featured,
		InStock:     in.InStock == nil || *in.InStock,
	}
	if err := orm.New(ctx, r.db).Create(&p); err != nil {
		return "", r.fail(ctx, "products.add", err)
	}

	r.publish(ctx, realtime.Change{Op: realtime.Insert, ID: p.ID, Category: p.Category})
	return p.ID, nil
}

// Update writes only the fields present in patch, plus updated_at.
func (r *ProductRepository) Update(ctx context.Context, id string, patch models.ProductPatch) error {
	errs := validate.Struct(patch)
	for field, msg := range patch.Conflicts() {
		errs[field] = msg
	}
	if validate.HasErrors(errs) {
		return apperr.Validation("products.update", errs)
	}

	current, err := r.ByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return apperr.NotFound("products.update", "product not found")
	}

	cols := patch.Columns()
	cols["updated_at"] = time.Now().UTC()
	if _, err := r.query(ctx).Where("id = ?", id).Updates(cols); err != nil {
		return r.fail(ctx, "products.update", err)
	}

	category := current.Category
	if patch.Category != nil {
		category = *patch.Category
	}
	r.publish(ctx, realtime.Change{Op: realtime.Update, ID: id, Category: category, OldCategory: current.Category})
	return nil
}

// Delete removes the product row only; its images stay in storage.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	current, err := r.ByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return apperr.NotFound("products.delete", "product not found")
	}

	if _, err := orm.New(ctx, r.db).Where("id = ?", id).Delete(&models.Product{}); err != nil {
		return r.fail(ctx, "products.delete", err)
	}

	r.publish(ctx, realtime.Change{Op: realtime.Delete, ID: id, OldCategory: current.Category})
	return nil
}

// Search matches term as a case-insensitive substring of name, description
// or category. Results are newest first and unranked.
func (r *ProductRepository) Search(ctx context.Context, term string) ([]models.Product, error) {
	var products []models.Product
	err := r.query(ctx).
		Contains(strings.TrimSpace(term), "name", "description", "category").
		Order("created_at DESC").
		Get(&products)
	if err != nil {
		metrics.SearchQueries.WithLabelValues("failed").Inc()
		return nil, r.fail(ctx, "products.search", err)
	}
	metrics.SearchQueries.WithLabelValues("ok").Inc()
	return products, nil
}

// Paginated returns the zero-based page of size products, newest first.
func (r *ProductRepository) Paginated(ctx context.Context, page, size int) (Page, error) {
	var products []models.Product
	p, err := r.query(ctx).Order("created_at DESC").GetWithPagination(&products, page, size)
	if err != nil {
		return Page{}, r.fail(ctx, "products.paginated", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return Page{Items: products, Pagination: p}, nil
}

// Featured returns the newest limit products.
func (r *ProductRepository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	if err := r.query(ctx).Order("created_at DESC").Limit(limit).Get(&products); err != nil {
		return nil, r.fail(ctx, "products.featured", err)
	}
	return products, nil
}

// CountByCategory returns the number of products per category.
func (r *ProductRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Category string
		Total    int64
	}
	err := r.query(ctx).Select("category, COUNT(*) AS total").Group("category").Get(&rows)
	if err != nil {
		return nil, r.fail(ctx, "products.count_by_category", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Total
	}
	return counts, nil
}

// Subscribe pushes the full product list once, then again after every
// change to the products table. A failed fetch is reported to onError and
// the subscription keeps going; a failed feed is reported once and ends it.
// The returned func unsubscribes and may be called more than once.
func (r *ProductRepository) Subscribe(ctx context.Context, onData func([]models.Product), onError func(error)) func() {
	return r.watch(ctx, "all", func(realtime.Change) bool { return true }, r.All, onData, onError)
}

// SubscribeByCategory is Subscribe restricted to changes that move a product
// into, out of or within category.
func (r *ProductRepository) SubscribeByCategory(ctx context.Context, category string, onData func([]models.Product), onError func(error)) func() {
	fetch := func(ctx context.Context) ([]models.Product, error) { return r.ByCategory(ctx, category) }
	return r.watch(ctx, "category", func(c realtime.Change) bool { return c.Touches(category) }, fetch, onData, onError)
}

func (r *ProductRepository) watch(
	parent context.Context,
	scope string,
	match func(realtime.Change) bool,
	fetch func(context.Context) ([]models.Product, error),
	onData func([]models.Product),
	onError func(error),
) func() {
	ctx, cancel := context.WithCancel(parent)
	log := logger.WithCtx(parent).With("subscription", scope)

	// Subscribe before the first fetch so no change slips in between.
	sub, subErr := r.feed.Subscribe(ctx, productsTable)

	push := func() {
		products, err := fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			metrics.RealtimePushes.WithLabelValues(scope, "error").Inc()
			onError(err)
			return
		}
		metrics.RealtimePushes.WithLabelValues(scope, "ok").Inc()
		onData(products)
	}

	go func() {
		push()
		if subErr != nil {
			log.Error("products: subscribe failed", "error", subErr)
			onError(apperr.Backend("products.subscribe", subErr))
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-sub.Changes():
				if !ok {
					if err := sub.Err(); err != nil && ctx.Err() == nil {
						log.Error("products: change feed closed", "error", err)
						onError(apperr.Backend("products.subscribe", err))
					}
					return
				}
				if match(c) {
					push()
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if sub != nil {
				sub.Close()
			}
		})
	}
}

func (r *ProductRepository) publish(ctx context.Context, c realtime.Change) {
	c.Table = productsTable
	c.At = time.Now().UTC()
	if err := r.feed.Publish(ctx, c); err != nil {
		logger.WithCtx(ctx).Warn("products: publish change failed", "op", c.Op, "id", c.ID, "error", err)
	}
}

func (r *ProductRepository) fail(ctx context.Context, op string, err error) error {
	logger.WithCtx(ctx).Error("products: query failed", "op", op, "error", err)
	return apperr.Backend(op, err)
}
