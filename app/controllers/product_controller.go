package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/state"
	"github.com/shashiranjanraj/storefront/app/views"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/sse"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	heartbeatEvery  = 15 * time.Second
)

// ProductCatalog is the repository surface the product endpoints read from.
type ProductCatalog interface {
	All(ctx context.Context) ([]models.Product, error)
	ByCategory(ctx context.Context, category string) ([]models.Product, error)
	ByID(ctx context.Context, id string) (*models.Product, error)
	Paginated(ctx context.Context, page, size int) (repositories.Page, error)
	Subscribe(ctx context.Context, onData func([]models.Product), onError func(error)) func()
	SubscribeByCategory(ctx context.Context, category string, onData func([]models.Product), onError func(error)) func()
}

type ProductController struct {
	catalog ProductCatalog
	state   *state.Products
	hub     *ws.Hub
}

func NewProductController(catalog ProductCatalog, products *state.Products, hub *ws.Hub) *ProductController {
	return &ProductController{catalog: catalog, state: products, hub: hub}
}

// Index lists every product, or those of ?category=, newest first.
func (pc *ProductController) Index(c *ctx.Context) {
	var (
		products []models.Product
		err      error
	)
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		products, err = pc.catalog.ByCategory(c.Context(), category)
	} else {
		products, err = pc.catalog.All(c.Context())
	}
	if err != nil {
		c.Fail(err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.Success(products)
}

// Featured returns up to six home-page products from the live cache.
func (pc *ProductController) Featured(c *ctx.Context) {
	c.Success(pc.state.Featured())
}

// Page returns ?page= (zero-based) of ?size= products.
func (pc *ProductController) Page(c *ctx.Context) {
	page := c.IntQuery("page", 0)
	size := c.IntQuery("size", defaultPageSize)
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}

	p, err := pc.catalog.Paginated(c.Context(), page, size)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

// Show returns one product.
func (pc *ProductController) Show(c *ctx.Context) {
	p, err := pc.catalog.ByID(c.Context(), c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	if p == nil {
		c.NotFound("Product not found")
		return
	}
	c.Success(struct {
		*models.Product
		Pricing views.PriceView `json:"pricing"`
	}{p, views.NewPriceView(*p)})
}

// Card renders the HTML product card.
func (pc *ProductController) Card(c *ctx.Context) {
	p, err := pc.catalog.ByID(c.Context(), c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	if p == nil {
		c.HTML(http.StatusNotFound, []byte("<!DOCTYPE html><p>Product not found</p>"))
		return
	}
	html, err := views.RenderProductCard(*p)
	if err != nil {
		c.Fail(err)
		return
	}
	c.HTML(http.StatusOK, html)
}

// Stream pushes a "products" SSE event with the full list (or ?category=
// list) on connect and after every relevant change. Failures are sent as
// "error" events; the stream ends when the client disconnects.
func (pc *ProductController) Stream(c *ctx.Context) {
	stream := sse.New(c.W, c.R)
	if stream == nil {
		return
	}

	// Callbacks outlive c once the handler returns; they only see reqCtx.
	reqCtx, cancel := context.WithCancel(c.Context())
	defer cancel()

	type event struct {
		name string
		data any
	}
	events := make(chan event, 4)
	deliver := func(e event) {
		select {
		case events <- e:
		case <-reqCtx.Done():
		}
	}
	onData := func(p []models.Product) {
		if p == nil {
			p = []models.Product{}
		}
		deliver(event{"products", p})
	}
	onError := func(err error) {
		deliver(event{"error", map[string]string{"message": apperr.Public(err)}})
	}

	var unsubscribe func()
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		unsubscribe = pc.catalog.SubscribeByCategory(reqCtx, category, onData, onError)
	} else {
		unsubscribe = pc.catalog.Subscribe(reqCtx, onData, onError)
	}
	defer unsubscribe()

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()

	for {
		select {
		case <-reqCtx.Done():
			return
		case e := <-events:
			if err := stream.Send(e.name, e.data); err != nil {
				logger.WithCtx(reqCtx).Debug("products: stream send failed", "error", err)
				return
			}
		case <-heartbeat.C:
			stream.Comment("keepalive")
		}
	}
}

// Socket upgrades to a websocket that receives the current snapshot, then
// every snapshot the product cache broadcasts.
func (pc *ProductController) Socket(c *ctx.Context) {
	greeting, err := json.Marshal(pc.state.Snapshot())
	if err != nil {
		c.Fail(err)
		return
	}
	if err := ws.Upgrade(c.W, c.R, pc.hub, greeting); err != nil {
		logger.WithCtx(c.Context()).Warn("products: websocket upgrade failed", "error", err)
	}
}

// Store creates a product. The category must be one of the catalog
// sections; it is stored in its canonical spelling.
func (pc *ProductController) Store(c *ctx.Context) {
	var in models.NewProduct
	if !c.BindJSON(&in) {
		return
	}
	category, ok := models.ParseCategory(in.Category)
	if !ok {
		c.ValidationError(map[string]string{"category": categoryMessage()})
		return
	}
	in.Category = string(category)

	id, err := pc.state.Add(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(map[string]string{"id": id})
}

// Update applies a partial update.
func (pc *ProductController) Update(c *ctx.Context) {
	var patch models.ProductPatch
	if !c.BindJSON(&patch) {
		return
	}
	if patch.Category != nil {
		category, ok := models.ParseCategory(*patch.Category)
		if !ok {
			c.ValidationError(map[string]string{"category": categoryMessage()})
			return
		}
		canonical := string(category)
		patch.Category = &canonical
	}

	if err := pc.state.Update(c.Context(), c.Param("id"), patch); err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]string{"id": c.Param("id")})
}

// Destroy deletes a product. Its images stay in the bucket.
func (pc *ProductController) Destroy(c *ctx.Context) {
	if err := pc.state.Delete(c.Context(), c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Categories lists the catalog sections.
func Categories(c *ctx.Context) {
	c.Success(models.Categories())
}

func categoryMessage() string {
	names := make([]string, 0, len(models.Categories()))
	for _, cat := range models.Categories() {
		names = append(names, string(cat))
	}
	return "The category must be one of: " + strings.Join(names, ", ") + "."
}
