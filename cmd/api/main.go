package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"shophub/internal/auth"
	"shophub/internal/config"
	"shophub/internal/db"
	"shophub/internal/httpserver"
	"shophub/internal/idempotency"
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

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}
	cfg := config.FromEnv()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Printf("warning: JWT_SECRET is not set, using the built-in default")
	}
	tokens := auth.NewManager(cfg.JWTSecret)

	var payments payment.Gateway
	if cfg.StripeSecretKey != "" {
		payments = payment.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret, logger)
		if cfg.StripeWebhookSecret == "" {
			logger.Printf("warning: STRIPE_WEBHOOK_SECRET is not set, payment webhooks will be rejected")
		}
	} else {
		logger.Printf("STRIPE_SECRET_KEY is not set, using the mock payment gateway")
		payments = payment.NewMock(logger)
	}

	var idem idempotency.Store
	if cfg.RedisAddr != "" {
		idem = idempotency.NewRedis(cfg.RedisAddr, "shophub")
		if err := idem.Ping(ctx); err != nil {
			logger.Printf("warning: redis at %s not reachable: %v", cfg.RedisAddr, err)
		}
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo)
	categoryService := categorysvc.New(categoryrepo.NewPostgres(dbpool))
	userService := usersvc.New(userrepo.NewPostgres(dbpool, logger), productRepo, tokens)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	checkoutService := checkoutsvc.New(productRepo, orderRepo, payments, idem, cfg.PaymentCurrency, logger)
	orderService := ordersvc.New(orderRepo, payments, logger)

	deps := httpserver.Deps{
		ProductSvc:  productService,
		CategorySvc: categoryService,
		UserSvc:     userService,
		CheckoutSvc: checkoutService,
		OrderSvc:    orderService,
	}
	if idem != nil {
		deps.Cache = idem
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps, httpserver.Options{
		CORSOrigins:     splitOrigins(cfg.CORSOrigin),
		BodyLimitBytes:  cfg.BodyLimitBytes,
		AuthRate:        rate.Limit(cfg.AuthRateRPS),
		AuthBurst:       cfg.AuthRateBurst,
		CartRequireAuth: cfg.CartRequireAuth,
		PublishableKey:  cfg.StripePublishableKey,
		Currency:        cfg.PaymentCurrency,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
