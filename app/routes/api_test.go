package routes_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/state"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/app"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/realtime"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/session"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

// newServices wires the storefront over in-memory sqlite, a memory feed, a
// temp-dir disk and no Redis.
func newServices(t *testing.T) *app.Services {
	t.Helper()

	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.AccessoryCategory{}))

	disk, err := storage.NewLocal(t.TempDir(), "products")
	require.NoError(t, err)

	cfg := config.Storefront{
		BackendURL:        "http://shop.test",
		BackendKey:        "backend-key",
		AdminUsername:     "admin",
		AdminPassword:     "s3cret",
		AdminEmail:        "admin@shop.example",
		MaxFileSize:       1 << 20,
		SupportedFormats:  []string{"image/jpeg", "image/png", "image/webp"},
		ImageQuality:      0.8,
		MaxDimension:      1920,
		Bucket:            "products",
		UploadConcurrency: 2,
		RefreshDelay:      10 * time.Millisecond,
	}

	issuer, err := auth.NewIssuer(cfg.BackendKey, time.Hour)
	require.NoError(t, err)
	authState, err := state.NewAuth(state.Credentials{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Email:    cfg.AdminEmail,
	}, session.NewStore(cache.New(nil, "test:"), time.Hour), issuer)
	require.NoError(t, err)

	s := &app.Services{
		Config: cfg,
		DB:     db,
		Feed:   realtime.NewMemory(),
		Disk:   disk,
		Pool:   workerpool.New(2),
		Auth:   authState,
		Hub:    ws.NewHub(),
	}
	s.ProductRepo = repositories.NewProductRepository(db, s.Feed)
	s.CategoryRepo = repositories.NewAccessoryCategoryRepository(db)
	s.Images = services.NewImageService(disk, s.Pool, cfg)
	s.Products = state.NewProducts(s.ProductRepo, cfg.RefreshDelay)
	s.Search = state.NewSearch(s.ProductRepo)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	t.Cleanup(func() {
		cancel()
		s.Close()
	})
	return s
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := router.New()
	routes.Register(r, newServices(t))
	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token, body string) (*http.Response, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(raw)
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	res, body := call(t, srv, http.MethodPost, "/api/admin/login", "", `{"username":"admin","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var env struct {
		Data state.LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	require.NotEmpty(t, env.Data.Token)
	assert.False(t, env.Data.Backend, "no Redis: the grant is local")
	return env.Data.Token
}

func TestAdminRoutesRequireToken(t *testing.T) {
	srv := newServer(t)

	res, _ := call(t, srv, http.MethodGet, "/api/admin/dashboard", "", "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = call(t, srv, http.MethodPost, "/api/admin/products", "not-a-token", `{}`)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, body := call(t, srv, http.MethodPost, "/api/admin/login", "", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, "Invalid credentials")
}

func TestLoginTwiceIsRejected(t *testing.T) {
	srv := newServer(t)
	token := login(t, srv)

	res, _ := call(t, srv, http.MethodPost, "/api/admin/login", token, `{"username":"admin","password":"s3cret"}`)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestProductLifecycle(t *testing.T) {
	srv := newServer(t)
	token := login(t, srv)

	res, body := call(t, srv, http.MethodPost, "/api/admin/products", token,
		`{"name":"Toy Car","category":"Toys","price":5,"images":["http://shop.test/a.jpg"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, body, "category")

	res, body = call(t, srv, http.MethodPost, "/api/admin/products", token,
		`{"name":"Linen Shirt","category":"men","price":29.5,"market_price":45,"images":["http://shop.test/a.jpg"]}`)
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	id := created.Data.ID
	require.NotEmpty(t, id)

	res, body = call(t, srv, http.MethodGet, "/api/products?category=Men", "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Linen Shirt")

	res, body = call(t, srv, http.MethodGet, "/api/products/"+id, "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `"pricing"`)

	res, body = call(t, srv, http.MethodGet, "/products/"+id, "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Contains(t, body, `<s class="market-price">`)

	res, body = call(t, srv, http.MethodGet, "/api/admin/dashboard", token, "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Linen Shirt")

	res, _ = call(t, srv, http.MethodDelete, "/api/admin/products/"+id, token, "")
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, _ = call(t, srv, http.MethodGet, "/api/products/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	srv := newServer(t)
	token := login(t, srv)

	res, body := call(t, srv, http.MethodGet, "/api/admin/me", token, "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `"username":"admin"`)

	res, _ = call(t, srv, http.MethodPost, "/api/admin/logout", token, "")
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, _ = call(t, srv, http.MethodGet, "/api/admin/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestPublicEndpoints(t *testing.T) {
	srv := newServer(t)

	res, body := call(t, srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `"database":"up"`)

	res, body = call(t, srv, http.MethodGet, "/api/categories", "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Accessories")

	res, body = call(t, srv, http.MethodGet, "/api/cart", "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "subtotal")

	res, body = call(t, srv, http.MethodPost, "/graphql", "", `{"query":"{ categories }"}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Women")

	res, _ = call(t, srv, http.MethodGet, "/storage/v1/object/public/products/missing.jpg", "", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestScenarios(t *testing.T) {
	r := router.New()
	routes.Register(r, newServices(t))
	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)

	testkit.RunDir(t, r.Handler(), "testdata", testkit.Vars{"token": login(t, srv)})
}

func TestRouteNames(t *testing.T) {
	r := router.New()
	routes.Register(r, &app.Services{})

	path, ok := r.Path("products.show")
	require.True(t, ok)
	assert.Equal(t, "/api/products/{id}", path)

	url, err := r.URL("admin.accessory_categories.destroy_by_name", map[string]string{"name": "Bags"})
	require.NoError(t, err)
	assert.Equal(t, "/api/admin/accessory-categories/by-name/Bags", url)
}
