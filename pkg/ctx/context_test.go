package ctx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	appctx "github.com/shashiranjanraj/storefront/pkg/ctx"
)

func serve(req *http.Request, h appctx.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	appctx.Wrap(h)(rec, req)
	return rec
}

func TestWrapAndJSON(t *testing.T) {
	rec := serve(httptest.NewRequest(http.MethodGet, "/", nil), func(c *appctx.Context) {
		c.JSON(http.StatusOK, map[string]any{"ok": true})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
}

func TestIntQuery(t *testing.T) {
	serve(httptest.NewRequest(http.MethodGet, "/?page=3&size=abc", nil), func(c *appctx.Context) {
		assert.Equal(t, 3, c.IntQuery("page", 0))
		assert.Equal(t, 20, c.IntQuery("size", 20))
		assert.Equal(t, 7, c.IntQuery("absent", 7))
		c.Success(nil)
	})
}

func TestBindJSONValid(t *testing.T) {
	body := `{"name":"Linen Shirt","price":29.5,"category":"Men","images":["a.jpg"]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(req, func(c *appctx.Context) {
		var input struct {
			Name     string   `json:"name"     validate:"required"`
			Price    float64  `json:"price"    validate:"required,gt=0"`
			Category string   `json:"category" validate:"required"`
			Images   []string `json:"images"   validate:"required,min=1"`
		}
		if !assert.True(t, c.BindJSON(&input)) {
			return
		}
		assert.Equal(t, "Linen Shirt", input.Name)
		c.Success(nil)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBindJSONInvalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(req, func(c *appctx.Context) {
		var input struct {
			Name string `json:"name" validate:"required"`
		}
		assert.False(t, c.BindJSON(&input))
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBindJSONMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))

	rec := serve(req, func(c *appctx.Context) {
		var input struct {
			Name string `json:"name"`
		}
		assert.False(t, c.BindJSON(&input))
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBearerTokenAndClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{Username: "admin"}))

	serve(req, func(c *appctx.Context) {
		assert.Equal(t, "abc.def.ghi", c.BearerToken())
		require.NotNil(t, c.Claims())
		assert.Equal(t, "admin", c.Claims().Username)
		c.Success(nil)
	})
}

func TestFailMapsKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"validation", apperr.Validation("products.add", map[string]string{"price": "Price must be greater than 0"}), http.StatusUnprocessableEntity, "Price must be greater than 0"},
		{"not found", apperr.NotFound("products.update", "product not found"), http.StatusNotFound, "product not found"},
		{"backend", apperr.Backend("products.all", errors.New("dial tcp: refused")), http.StatusBadGateway, "backend request failed"},
		{"unknown", errors.New("secret detail"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(httptest.NewRequest(http.MethodGet, "/", nil), func(c *appctx.Context) {
				c.Fail(tc.err)
			})
			assert.Equal(t, tc.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
			assert.NotContains(t, rec.Body.String(), "refused")
			assert.NotContains(t, rec.Body.String(), "secret detail")
		})
	}
}

func TestHTML(t *testing.T) {
	rec := serve(httptest.NewRequest(http.MethodGet, "/", nil), func(c *appctx.Context) {
		c.HTML(http.StatusOK, []byte("<p>hi</p>"))
	})

	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<p>hi</p>", rec.Body.String())
}
