package routes

import (
	"github.com/shashiranjanraj/storefront/app/controllers"
	appgraphql "github.com/shashiranjanraj/storefront/app/graphql"
	"github.com/shashiranjanraj/storefront/app/state"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/app"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/graphql"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/rbac"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// Register mounts every storefront endpoint on r.
func Register(r *router.Router, s *app.Services) {
	products := controllers.NewProductController(s.ProductRepo, s.Products, s.Hub)
	search := controllers.NewSearchController(s.Search)
	accessories := controllers.NewAccessoryCategoryController(s.CategoryRepo)
	authc := controllers.NewAuthController(s.Auth)
	images := controllers.NewImageController(s.Images)
	dashboard := controllers.NewDashboardController(s.ProductRepo)

	schema, err := appgraphql.NewSchema(s.ProductRepo, s.Products, s.CategoryRepo)
	if err != nil {
		panic("routes: graphql schema: " + err.Error())
	}

	// ── Public ──────────────────────────────────────────────────────────────
	r.Get("/health", "health", ctx.Wrap(controllers.Health(s.Ping, map[string]string{
		"db_driver": config.DatabaseDriver(),
		"storage":   config.StorageDisk(),
		"realtime":  config.RealtimeDriver(),
	})))
	r.Get("/metrics", "metrics", metrics.Handler())
	r.Post("/graphql", "graphql", graphql.Handler(schema))
	r.Get("/products/{id}", "products.card", ctx.Wrap(products.Card))
	r.Get("/ws/products", "products.socket", ctx.Wrap(products.Socket))
	r.Handle("/storage/v1/object/public/{bucket}/*", "storage.object", controllers.NewObjectServer(s.Disk))

	api := r.Group("/api")
	api.Get("/products", "products.index", ctx.Wrap(products.Index))
	api.Get("/products/featured", "products.featured", ctx.Wrap(products.Featured))
	api.Get("/products/page", "products.page", ctx.Wrap(products.Page))
	api.Get("/products/stream", "products.stream", ctx.Wrap(products.Stream))
	api.Get("/products/{id}", "products.show", ctx.Wrap(products.Show))
	api.Get("/search", "search.index", ctx.Wrap(search.Index))
	api.Get("/search/current", "search.current", ctx.Wrap(search.Current))
	api.Get("/categories", "categories.index", ctx.Wrap(controllers.Categories))
	api.Get("/accessory-categories", "accessory_categories.index", ctx.Wrap(accessories.Index))
	api.Get("/cart", "cart.show", ctx.Wrap(controllers.Cart))

	// ── Admin ───────────────────────────────────────────────────────────────
	admin := api.Group("/admin")
	admin.Post("/login", "admin.login", ctx.Wrap(authc.Login), middleware.Guest(s.Auth))

	guarded := admin.Group("", middleware.Guard(s.Auth), rbac.HasRole(state.AdminRole))
	guarded.Post("/logout", "admin.logout", ctx.Wrap(authc.Logout))
	guarded.Get("/me", "admin.me", ctx.Wrap(authc.Me))
	guarded.Get("/dashboard", "admin.dashboard", ctx.Wrap(dashboard.Index))

	guarded.Post("/products", "admin.products.store", ctx.Wrap(products.Store))
	guarded.Put("/products/{id}", "admin.products.update", ctx.Wrap(products.Update))
	guarded.Patch("/products/{id}", "admin.products.patch", ctx.Wrap(products.Update))
	guarded.Delete("/products/{id}", "admin.products.destroy", ctx.Wrap(products.Destroy))

	guarded.Get("/images", "admin.images.index", ctx.Wrap(images.Index))
	guarded.Post("/images", "admin.images.store", ctx.Wrap(images.Store))
	guarded.Delete("/images", "admin.images.destroy", ctx.Wrap(images.Destroy))
	guarded.Get("/storage/stats", "admin.storage.stats", ctx.Wrap(images.Stats))

	guarded.Post("/accessory-categories", "admin.accessory_categories.store", ctx.Wrap(accessories.Store))
	guarded.Delete("/accessory-categories/{id}", "admin.accessory_categories.destroy", ctx.Wrap(accessories.Destroy))
	guarded.Delete("/accessory-categories/by-name/{name}", "admin.accessory_categories.destroy_by_name", ctx.Wrap(accessories.DestroyByName))
}
