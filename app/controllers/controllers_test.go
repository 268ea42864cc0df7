package controllers_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ── Accessory categories ───────────────────────────────────────────────────

type mockCategories struct{ mock.Mock }

func (m *mockCategories) Names(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *mockCategories) Add(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *mockCategories) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCategories) DeleteByName(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func categoryRouter(store controllers.AccessoryCategoryStore) http.Handler {
	ac := controllers.NewAccessoryCategoryController(store)
	r := router.New()
	r.Get("/categories", "index", ctx.Wrap(ac.Index))
	r.Post("/categories", "store", ctx.Wrap(ac.Store))
	r.Delete("/categories/{id}", "destroy", ctx.Wrap(ac.Destroy))
	r.Delete("/categories/by-name/{name}", "destroy_by_name", ctx.Wrap(ac.DestroyByName))
	return r.Handler()
}

func TestAccessoryCategoryEndpoints(t *testing.T) {
	store := &mockCategories{}
	store.On("Names", mock.Anything).Return([]string{"Belts", "Scarves"}, nil)
	store.On("Add", mock.Anything, "Hats").Return("cat-1", nil)
	store.On("Delete", mock.Anything, "cat-1").Return(nil)
	store.On("Delete", mock.Anything, "missing").Return(apperr.NotFound("accessory_categories.delete", "accessory category not found"))
	store.On("DeleteByName", mock.Anything, "Belts").Return(nil)
	h := categoryRouter(store)

	rec := do(t, h, http.MethodGet, "/categories", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `["Belts","Scarves"]`)

	rec = do(t, h, http.MethodPost, "/categories", `{"name":"Hats"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "cat-1")

	rec = do(t, h, http.MethodPost, "/categories", `{"name":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/categories/cat-1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/categories/missing", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/categories/by-name/Belts", "").Code)

	store.AssertExpectations(t)
}

func TestAccessoryCategoryBackendFailure(t *testing.T) {
	store := &mockCategories{}
	store.On("Names", mock.Anything).Return(nil, apperr.Backend("accessory_categories.names", errors.New("connection reset")))

	rec := do(t, categoryRouter(store), http.MethodGet, "/categories", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

// ── Health and cart ────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	drivers := map[string]string{"db_driver": "sqlite"}

	up := ctx.Wrap(controllers.Health(func(context.Context) error { return nil }, drivers))
	rec := do(t, up, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"db_driver":"sqlite"`)

	down := ctx.Wrap(controllers.Health(func(context.Context) error { return errors.New("refused") }, drivers))
	rec = do(t, down, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"down"`)
}

func TestCart(t *testing.T) {
	rec := do(t, ctx.Wrap(controllers.Cart), http.MethodGet, "/api/cart", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items"`)
	assert.Contains(t, rec.Body.String(), `"subtotal"`)
}

// ── Object server ──────────────────────────────────────────────────────────

func newDisk(t *testing.T) storage.Disk {
	t.Helper()
	disk, err := storage.NewLocal(t.TempDir(), "products")
	require.NoError(t, err)
	return disk
}

func objectRouter(disk storage.Disk) http.Handler {
	r := router.New()
	r.Handle("/storage/v1/object/public/{bucket}/*", "storage.object", controllers.NewObjectServer(disk))
	return r.Handler()
}

func TestObjectServer(t *testing.T) {
	disk := newDisk(t)
	img := smallPNG(t)
	require.NoError(t, disk.Put(context.Background(), "2025/shirt.png", bytes.NewReader(img), int64(len(img)), "image/png"))
	h := objectRouter(disk)

	rec := do(t, h, http.MethodGet, "/storage/v1/object/public/products/2025/shirt.png", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, img, rec.Body.Bytes())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/storage/v1/object/public/products/nope.jpg", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/storage/v1/object/public/other/2025/shirt.png", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/storage/v1/object/public/products/2025/shirt.png", "").Code)
}

// ── Images ─────────────────────────────────────────────────────────────────

func newImageController(t *testing.T, maxSize int64) (*controllers.ImageController, storage.Disk) {
	t.Helper()
	disk := newDisk(t)
	pool := workerpool.New(2)
	t.Cleanup(pool.Shutdown)
	cfg := config.Storefront{
		BackendURL:       "http://shop.test",
		MaxFileSize:      maxSize,
		SupportedFormats: []string{"image/jpeg", "image/png"},
		ImageQuality:     0.8,
		MaxDimension:     200,
		Bucket:           "products",
	}
	return controllers.NewImageController(services.NewImageService(disk, pool, cfg)), disk
}

type part struct {
	name, contentType string
	data              []byte
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="images"; filename="`+p.name+`"`)
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func upload(ic *controllers.ImageController, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ctx.Wrap(ic.Store)(rec, req)
	return rec
}

func TestImageUploadReturnsURLsInOrder(t *testing.T) {
	ic, disk := newImageController(t, 1<<20)
	body, ct := multipartBody(t,
		part{"front.png", "image/png", smallPNG(t)},
		part{"back.png", "image/png", smallPNG(t)},
	)

	rec := upload(ic, body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "http://shop.test/storage/v1/object/public/products/")
	assert.Equal(t, 2, strings.Count(rec.Body.String(), ".png"))

	stored, err := disk.List(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestImageUploadRejectsBeforeStorage(t *testing.T) {
	ic, disk := newImageController(t, 64)
	body, ct := multipartBody(t, part{"huge.png", "image/png", bytes.Repeat([]byte{1}, 128)})

	rec := upload(ic, body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Image size must be less than")

	stored, err := disk.List(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestImageUploadNeedsFiles(t *testing.T) {
	ic, _ := newImageController(t, 1<<20)
	body, ct := multipartBody(t)

	rec := upload(ic, body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = upload(ic, bytes.NewBufferString(`{"images":[]}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImageDestroyRejectsForeignURL(t *testing.T) {
	ic, _ := newImageController(t, 1<<20)

	rec := do(t, ctx.Wrap(ic.Destroy), http.MethodDelete, "/images", `{"urls":["https://elsewhere.test/a.jpg"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://elsewhere.test/a.jpg")
}
