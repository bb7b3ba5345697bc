package httpserver

import (
	"context"
	"io"
	"log"
	"testing"

	"shophub/internal/auth"
	"shophub/internal/domain"
	checkoutsvc "shophub/internal/service/checkout"
	ordersvc "shophub/internal/service/order"
	productsvc "shophub/internal/service/product"
	usersvc "shophub/internal/service/user"

	"github.com/gin-gonic/gin"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubProductService struct {
	products  []domain.Product
	product   *domain.Product
	err       error
	lastInput productsvc.Input
	lastID    string
}

func (s *stubProductService) List(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	s.lastID = id
	return s.product, s.err
}

func (s *stubProductService) Create(_ context.Context, in productsvc.Input) (*domain.Product, error) {
	s.lastInput = in
	return s.product, s.err
}

func (s *stubProductService) Update(_ context.Context, id string, in productsvc.Input) (*domain.Product, error) {
	s.lastID = id
	s.lastInput = in
	return s.product, s.err
}

type stubCategoryService struct {
	categories []domain.Category
	err        error
}

func (s *stubCategoryService) List(context.Context) ([]domain.Category, error) {
	return s.categories, s.err
}

type stubUserService struct {
	user        *domain.User
	token       string
	err         error
	cart        domain.Cart
	subjects    map[string]string
	lastUserID  string
	lastProduct string
	lastQty     int
	lastInput   usersvc.RegisterInput
}

func (s *stubUserService) Register(_ context.Context, in usersvc.RegisterInput) (*domain.User, string, error) {
	s.lastInput = in
	return s.user, s.token, s.err
}

func (s *stubUserService) Login(_ context.Context, _, _ string) (*domain.User, string, error) {
	return s.user, s.token, s.err
}

func (s *stubUserService) LookupByToken(_ context.Context, token string) (*domain.User, error) {
	if _, ok := s.subjects[token]; !ok {
		return nil, auth.ErrInvalidToken
	}
	return s.user, s.err
}

func (s *stubUserService) Subject(token string) (string, error) {
	sub, ok := s.subjects[token]
	if !ok {
		return "", auth.ErrInvalidToken
	}
	return sub, nil
}

func (s *stubUserService) Cart(_ context.Context, userID string) (domain.Cart, error) {
	s.lastUserID = userID
	return s.cart, s.err
}

func (s *stubUserService) AddToCart(_ context.Context, userID, productID string, quantity int) (domain.Cart, error) {
	s.lastUserID, s.lastProduct, s.lastQty = userID, productID, quantity
	if s.err != nil {
		return nil, s.err
	}
	s.cart = s.cart.AddOrIncrement(productID, quantity)
	return s.cart, nil
}

func (s *stubUserService) RemoveFromCart(_ context.Context, userID, productID string) (domain.Cart, error) {
	s.lastUserID, s.lastProduct = userID, productID
	s.cart = s.cart.Remove(productID)
	return s.cart, s.err
}

func (s *stubUserService) ClearCart(_ context.Context, userID string) (domain.Cart, error) {
	s.lastUserID = userID
	s.cart = domain.Cart{}
	return s.cart, s.err
}

type stubCheckoutService struct {
	result  *checkoutsvc.Result
	err     error
	lastReq checkoutsvc.Request
	lastKey string
}

func (s *stubCheckoutService) Checkout(_ context.Context, req checkoutsvc.Request, key string) (*checkoutsvc.Result, error) {
	s.lastReq = req
	s.lastKey = key
	return s.result, s.err
}

type stubOrderService struct {
	orders      []domain.Order
	order       *domain.Order
	outcome     ordersvc.WebhookOutcome
	err         error
	lastUserID  string
	lastPayload string
	lastSig     string
}

func (s *stubOrderService) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	s.lastUserID = userID
	return s.orders, s.err
}

func (s *stubOrderService) Get(_ context.Context, _ string) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) HandleWebhook(_ context.Context, payload []byte, signature string) (ordersvc.WebhookOutcome, error) {
	s.lastPayload = string(payload)
	s.lastSig = signature
	return s.outcome, s.err
}

type testDeps struct {
	products   *stubProductService
	categories *stubCategoryService
	users      *stubUserService
	checkout   *stubCheckoutService
	orders     *stubOrderService
}

func newTestDeps() *testDeps {
	return &testDeps{
		products:   &stubProductService{},
		categories: &stubCategoryService{},
		users:      &stubUserService{cart: domain.Cart{}, subjects: map[string]string{}},
		checkout:   &stubCheckoutService{},
		orders:     &stubOrderService{},
	}
}

func (d *testDeps) deps() Deps {
	return Deps{
		ProductSvc:  d.products,
		CategorySvc: d.categories,
		UserSvc:     d.users,
		CheckoutSvc: d.checkout,
		OrderSvc:    d.orders,
	}
}

func newTestRouter(t *testing.T, d *testDeps, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), nil, d.deps(), opts)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}
