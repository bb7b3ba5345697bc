package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shophub/internal/auth"
	"shophub/internal/domain"
	"shophub/internal/payment"
	categoryrepo "shophub/internal/repository/category"
	orderrepo "shophub/internal/repository/order"
	productrepo "shophub/internal/repository/product"
	userrepo "shophub/internal/repository/user"
	categorysvc "shophub/internal/service/category"
	checkoutsvc "shophub/internal/service/checkout"
	ordersvc "shophub/internal/service/order"
	productsvc "shophub/internal/service/product"
	usersvc "shophub/internal/service/user"
	"shophub/internal/testdb"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStorefrontFlow_Integration(t *testing.T) {
	pool := testdb.Pool(t)
	logger := logDiscard()
	gateway := payment.NewMock(logger)

	products := productrepo.NewPostgres(pool, logger)
	users := userrepo.NewPostgres(pool, logger)
	orders := orderrepo.NewPostgres(pool, logger)
	deps := Deps{
		ProductSvc:  productsvc.New(products),
		CategorySvc: categorysvc.New(categoryrepo.NewPostgres(pool)),
		UserSvc:     usersvc.New(users, products, auth.NewManager("test-secret")),
		CheckoutSvc: checkoutsvc.New(products, orders, gateway, nil, "usd", logger),
		OrderSvc:    ordersvc.New(orders, gateway, logger),
	}
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logger, pool, deps, Options{})
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/api/products", `{"name":"Mug","price":9.99,"stock":10,"category":"kitchen"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var mug domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mug))

	rec = doJSON(t, router, http.MethodPost, "/api/register", `{"email":"shopper@example.com","password":"password1","name":"Shopper"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var registered struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	require.NotEmpty(t, registered.Token)

	cartPath := "/api/cart/" + registered.User.ID
	for i := 0; i < 2; i++ {
		rec = doJSON(t, router, http.MethodPost, cartPath, `{"productId":"`+mug.ID+`","quantity":2}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, cartPath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"productId":"`+mug.ID+`","quantity":4}]`, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/checkout", `{"items":[{"productId":"`+mug.ID+`","quantity":4}],"email":"shopper@example.com","amount":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "mismatched amount must be rejected")

	rec = doJSON(t, router, http.MethodPost, "/api/checkout", `{"items":[{"productId":"`+mug.ID+`","quantity":4}],"email":"shopper@example.com","amount":39.96}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result checkoutsvc.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.ClientSecret)
	require.NotEmpty(t, result.OrderID)

	rec = doJSON(t, router, http.MethodGet, "/api/orders/shopper@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, result.OrderID, listed[0].ID)
	assert.Equal(t, domain.OrderProcessing, listed[0].Status)
	assert.Equal(t, "39.96", listed[0].Total.StringFixed(2))

	rec = doJSON(t, router, http.MethodGet, "/api/products/"+mug.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var afterCheckout domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &afterCheckout))
	assert.Equal(t, 6, afterCheckout.Stock)

	rec = doJSON(t, router, http.MethodPost, "/api/checkout", `{"items":[{"productId":"`+mug.ID+`","quantity":7}],"email":"shopper@example.com","amount":69.93}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "stock cannot go negative")

	webhook := `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"` + listed[0].PaymentRef + `"}}}`
	for i := 0; i < 2; i++ {
		rec = doJSON(t, router, http.MethodPost, "/api/webhooks/payments", webhook)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/orders/id/"+result.OrderID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var settled domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settled))
	assert.Equal(t, domain.OrderSucceeded, settled.Status)

	rec = doJSON(t, router, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"kitchen","productCount":1}]`, rec.Body.String())
}
