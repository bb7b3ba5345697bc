package httpserver

import (
	"context"
	"errors"
	"log"
	"time"

	"shophub/internal/domain"
	checkoutsvc "shophub/internal/service/checkout"
	ordersvc "shophub/internal/service/order"
	productsvc "shophub/internal/service/product"
	usersvc "shophub/internal/service/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type productService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in productsvc.Input) (*domain.Product, error)
	Update(ctx context.Context, id string, in productsvc.Input) (*domain.Product, error)
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type userService interface {
	Register(ctx context.Context, in usersvc.RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
	Subject(token string) (string, error)
	Cart(ctx context.Context, userID string) (domain.Cart, error)
	AddToCart(ctx context.Context, userID, productID string, quantity int) (domain.Cart, error)
	RemoveFromCart(ctx context.Context, userID, productID string) (domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (domain.Cart, error)
}

type checkoutService interface {
	Checkout(ctx context.Context, req checkoutsvc.Request, idempotencyKey string) (*checkoutsvc.Result, error)
}

type orderService interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (ordersvc.WebhookOutcome, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds service dependencies for the HTTP layer. Cache is optional.
type Deps struct {
	ProductSvc  productService
	CategorySvc categoryService
	UserSvc     userService
	CheckoutSvc checkoutService
	OrderSvc    orderService
	Cache       pinger
}

func (d Deps) validate() error {
	switch {
	case d.ProductSvc == nil:
		return errors.New("product service required")
	case d.CategorySvc == nil:
		return errors.New("category service required")
	case d.UserSvc == nil:
		return errors.New("user service required")
	case d.CheckoutSvc == nil:
		return errors.New("checkout service required")
	case d.OrderSvc == nil:
		return errors.New("order service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, opts Options) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(secure.New(secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	router.Use(corsMiddleware(opts.CORSOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(bodyLimit(opts.BodyLimitBytes))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db, deps.Cache))
	router.GET("/", storefrontHandler(logger, deps.ProductSvc, deps.UserSvc, opts))

	api := router.Group("/api")

	api.GET("/products", listProductsHandler(logger, deps.ProductSvc))
	api.GET("/products/:id", getProductHandler(logger, deps.ProductSvc))
	api.POST("/products", createProductHandler(logger, deps.ProductSvc))
	api.PUT("/products/:id", updateProductHandler(logger, deps.ProductSvc))
	api.GET("/categories", listCategoriesHandler(logger, deps.CategorySvc))

	api.POST("/checkout", checkoutHandler(logger, deps.CheckoutSvc))
	api.GET("/orders/:userId", listOrdersHandler(logger, deps.OrderSvc))
	api.GET("/orders/id/:id", getOrderHandler(logger, deps.OrderSvc))
	api.POST("/webhooks/payments", paymentWebhookHandler(logger, deps.OrderSvc))

	limiter := newIPRateLimiter(opts.AuthRate, opts.AuthBurst)
	if opts.AuthRate > 0 {
		api.POST("/register", limiter.middleware(), registerHandler(logger, deps.UserSvc))
		api.POST("/login", limiter.middleware(), loginHandler(logger, deps.UserSvc))
	} else {
		api.POST("/register", registerHandler(logger, deps.UserSvc))
		api.POST("/login", loginHandler(logger, deps.UserSvc))
	}
	api.GET("/me", meHandler(logger, deps.UserSvc))

	cart := api.Group("/cart/:userId")
	if opts.CartRequireAuth {
		cart.Use(requireCartOwner(deps.UserSvc))
	}
	cart.GET("", getCartHandler(logger, deps.UserSvc))
	cart.POST("", addToCartHandler(logger, deps.UserSvc))
	cart.DELETE("", clearCartHandler(logger, deps.UserSvc))
	cart.DELETE("/:productId", removeFromCartHandler(logger, deps.UserSvc))

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "Stripe-Signature"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
