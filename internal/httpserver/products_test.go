package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shophub/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProducts(t *testing.T) {
	d := newTestDeps()
	d.products.products = []domain.Product{{ID: "p1", Name: "Mug", Price: decimal.RequireFromString("9.99"), Stock: 10}}
	router := newTestRouter(t, d, Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Mug", got[0].Name)
	assert.True(t, got[0].Price.Equal(decimal.RequireFromString("9.99")))
}

func TestGetProductNotFound(t *testing.T) {
	d := newTestDeps()
	d.products.err = domain.ErrNotFound
	router := newTestRouter(t, d, Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
	assert.Equal(t, "missing", d.products.lastID)
}

func TestCreateProduct(t *testing.T) {
	d := newTestDeps()
	d.products.product = &domain.Product{ID: "p1", Name: "Mug"}
	router := newTestRouter(t, d, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"Mug","price":9.99,"stock":10,"category":"kitchen"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Mug", d.products.lastInput.Name)
	assert.Equal(t, 10, d.products.lastInput.Stock)
	assert.True(t, d.products.lastInput.Price.Equal(decimal.RequireFromString("9.99")))
}

func TestCreateProductRejectsMalformedJSON(t *testing.T) {
	router := newTestRouter(t, newTestDeps(), Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProduct(t *testing.T) {
	d := newTestDeps()
	d.products.product = &domain.Product{ID: "p1", Name: "Big Mug"}
	router := newTestRouter(t, d, Options{})

	req := httptest.NewRequest(http.MethodPut, "/api/products/p1", strings.NewReader(`{"name":"Big Mug","price":"12.50"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", d.products.lastID)
	assert.Equal(t, "12.5", d.products.lastInput.Price.String())
}

func TestListCategories(t *testing.T) {
	d := newTestDeps()
	d.categories.categories = []domain.Category{{Name: "kitchen", ProductCount: 2}}
	router := newTestRouter(t, d, Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"kitchen","productCount":2}]`, rec.Body.String())
}
