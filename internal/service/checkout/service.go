// Package checkout turns a client cart into a persisted order backed by a payment intent.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"shophub/internal/domain"
	"shophub/internal/idempotency"
	"shophub/internal/payment"

	"github.com/shopspring/decimal"
)

const idempotencyOperation = "checkout"

// amountTolerance is the largest client/server total difference accepted as rounding noise.
var amountTolerance = decimal.RequireFromString("0.005")

// ErrAmountMismatch is returned when the client's amount disagrees with the catalog total.
var ErrAmountMismatch = fmt.Errorf("%w: amount does not match order total", domain.ErrValidation)

type catalog interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type orderStore interface {
	Place(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByPaymentRef(ctx context.Context, ref string) (*domain.Order, error)
}

type Service struct {
	products    catalog
	orders      orderStore
	payments    payment.Gateway
	idempotency idempotency.Store
	currency    string
	logger      *log.Logger
}

// New wires the coordinator. idem may be nil, which disables response replay.
func New(products catalog, orders orderStore, payments payment.Gateway, idem idempotency.Store, currency string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if currency == "" {
		currency = "usd"
	}
	return &Service{
		products:    products,
		orders:      orders,
		payments:    payments,
		idempotency: idem,
		currency:    currency,
		logger:      logger,
	}
}

// Item is one requested line. ID is accepted as an alias of ProductID for clients that
// post their cart lines as-is.
type Item struct {
	ProductID string `json:"productId"`
	ID        string `json:"id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type Request struct {
	Items           []Item          `json:"items"`
	Email           string          `json:"email"`
	Amount          decimal.Decimal `json:"amount"`
	ShippingAddress json.RawMessage `json:"shippingAddress,omitempty"`
}

type Result struct {
	ClientSecret string `json:"clientSecret"`
	OrderID      string `json:"orderId"`
}

// Checkout validates req against the catalog, opens a payment intent for the server-side
// total and stores the order as processing. When the order cannot be stored the intent is
// canceled. A non-empty idempotencyKey replays the first successful result.
func (s *Service) Checkout(ctx context.Context, req Request, idempotencyKey string) (*Result, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if cached, ok := s.replay(ctx, idempotencyKey); ok {
		return cached, nil
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email required", domain.ErrValidation)
	}
	cart, err := cartFromItems(req.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(cart))
	for _, line := range cart {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := make([]domain.OrderItem, 0, len(cart))
	for _, line := range cart {
		p, ok := products[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, line.ProductID)
		}
		items = append(items, domain.OrderItem{ProductID: p.ID, Quantity: line.Quantity, Price: p.Price})
	}

	total := cart.Total(func(id string) (decimal.Decimal, bool) {
		p, ok := products[id]
		return p.Price, ok
	})
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: order total must be positive", domain.ErrValidation)
	}
	if req.Amount.Sub(total).Abs().GreaterThan(amountTolerance) {
		s.logger.Printf("checkout: amount mismatch email=%s amount=%s total=%s", email, req.Amount.String(), total.StringFixed(2))
		return nil, ErrAmountMismatch
	}

	intent, err := s.payments.CreateIntent(ctx, payment.IntentRequest{
		AmountCents:    payment.ToCents(total),
		Currency:       s.currency,
		Email:          email,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Place(ctx, domain.Order{
		UserID:          email,
		Items:           items,
		Total:           total,
		Status:          domain.OrderProcessing,
		PaymentRef:      intent.ID,
		ShippingAddress: req.ShippingAddress,
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		// The processor handed back an intent that already backs an order: a retry with the
		// same idempotency key. Answer with that order and leave its intent alone.
		existing, lookupErr := s.orders.GetByPaymentRef(ctx, intent.ID)
		if lookupErr != nil {
			s.logger.Printf("checkout: lookup existing order payment_ref=%s error=%v", intent.ID, lookupErr)
			return nil, err
		}
		s.logger.Printf("checkout: reused order id=%s payment_ref=%s", existing.ID, intent.ID)
		res := &Result{ClientSecret: intent.ClientSecret, OrderID: existing.ID}
		s.remember(ctx, idempotencyKey, res)
		return res, nil
	}
	if err != nil {
		s.logger.Printf("checkout: place order failed email=%s payment_ref=%s error=%v", email, intent.ID, err)
		s.compensate(ctx, intent.ID)
		return nil, err
	}
	s.logger.Printf("checkout: order placed id=%s email=%s total=%s payment_ref=%s", order.ID, email, total.StringFixed(2), intent.ID)

	res := &Result{ClientSecret: intent.ClientSecret, OrderID: order.ID}
	s.remember(ctx, idempotencyKey, res)
	return res, nil
}

// cartFromItems merges repeated product lines into one cart.
func cartFromItems(items []Item) (domain.Cart, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item required", domain.ErrValidation)
	}
	cart := domain.Cart{}
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			id = strings.TrimSpace(it.ID)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: productId required", domain.ErrValidation)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
		}
		if it.Quantity > domain.MaxLineQuantity || cart.Quantity(id)+it.Quantity > domain.MaxLineQuantity {
			return nil, fmt.Errorf("%w: quantity must be at most %d", domain.ErrValidation, domain.MaxLineQuantity)
		}
		cart = cart.AddOrIncrement(id, it.Quantity)
	}
	return cart, nil
}

func (s *Service) compensate(ctx context.Context, intentID string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.payments.CancelIntent(cctx, intentID); err != nil {
		s.logger.Printf("checkout: CRITICAL cancel intent failed payment_ref=%s error=%v", intentID, err)
		return
	}
	s.logger.Printf("checkout: canceled intent payment_ref=%s", intentID)
}

func (s *Service) replay(ctx context.Context, key string) (*Result, bool) {
	if key == "" || s.idempotency == nil {
		return nil, false
	}
	raw, found, err := s.idempotency.Lookup(ctx, idempotencyOperation, key)
	if err != nil {
		s.logger.Printf("checkout: idempotency lookup key=%s error=%v", key, err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		s.logger.Printf("checkout: idempotency decode key=%s error=%v", key, err)
		return nil, false
	}
	s.logger.Printf("checkout: replayed key=%s order_id=%s", key, res.OrderID)
	return &res, true
}

func (s *Service) remember(ctx context.Context, key string, res *Result) {
	if key == "" || s.idempotency == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.idempotency.Save(ctx, idempotencyOperation, key, raw); err != nil {
		s.logger.Printf("checkout: idempotency save key=%s error=%v", key, err)
	}
}
