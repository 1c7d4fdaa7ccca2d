package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ristore-api/internal/catalog"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	h := catalog.NewHandler(catalog.HandlerConfig{Service: newService(t, newFakeStore(), nil)})
	r := chi.NewRouter()
	r.Get("/products", h.Products)
	r.Get("/products/{slug}", h.ProductDetail)
	r.Get("/categories", h.Categories)
	r.Post("/admin/products", h.CreateProduct)
	return r
}

func TestProductsHandlerEnvelope(t *testing.T) {
	router := newRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products?category=rings&limit=20&offset=40", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "57", rr.Header().Get("X-Total-Count"))

	var body struct {
		Success bool              `json:"success"`
		Data    []catalog.Product `json:"data"`
		Count   int               `json:"count"`
		Total   int64             `json:"total"`
		HasMore bool              `json:"hasMore"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Len(t, body.Data, 17)
	require.Equal(t, 17, body.Count)
	require.EqualValues(t, 57, body.Total)
	require.False(t, body.HasMore)
}

func TestProductsHandlerRejectsBadQuery(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products?limit=abc", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), `"success":false`)
}

func TestProductDetailHandler(t *testing.T) {
	router := newRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products/pearl-necklace-2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data            catalog.Product   `json:"data"`
		RelatedProducts []catalog.Product `json:"relatedProducts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "pearl-necklace-2", body.Data.Slug)
	require.Len(t, body.RelatedProducts, 4)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products/unknown", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), `"code":"NOT_FOUND"`)
}

func TestCreateProductHandler(t *testing.T) {
	router := newRouter(t)

	payload := `{"title":"Emerald Pendant","price":249.5,"image":"/img/emerald.jpg","itemsLeft":3,"isNew":true}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(payload)))
	require.Equal(t, http.StatusCreated, rr.Code)
	var body struct {
		Data catalog.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "emerald-pendant", body.Data.Slug)
	require.EqualValues(t, 24950, body.Data.Price)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(payload)))
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(`{"title":`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), `"code":"INVALID_JSON"`)
}
