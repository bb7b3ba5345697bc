package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type stripeGateway struct {
	api           *client.API
	webhookSecret string
	logger        *log.Logger
}

// NewStripe returns a Gateway backed by the Stripe API. Without webhookSecret every
// webhook event is rejected with ErrInvalidSignature.
func NewStripe(secretKey, webhookSecret string, logger *log.Logger) Gateway {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeGateway{api: api, webhookSecret: webhookSecret, logger: logger}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if req.AmountCents <= 0 {
		return Intent{}, ErrInvalidAmount
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.Email != "" {
		params.AddMetadata("email", req.Email)
		params.ReceiptEmail = stripe.String(req.Email)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.logger.Printf("stripe: create intent amount=%d error=%v", req.AmountCents, err)
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	g.logger.Printf("stripe: created intent id=%s amount=%d", pi.ID, req.AmountCents)
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *stripeGateway) CancelIntent(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := g.api.PaymentIntents.Cancel(id, params); err != nil {
		return fmt.Errorf("cancel payment intent %s: %w", id, err)
	}
	g.logger.Printf("stripe: canceled intent id=%s", id)
	return nil
}

func (g *stripeGateway) ParseEvent(payload []byte, signature string) (Event, error) {
	if g.webhookSecret == "" {
		g.logger.Printf("stripe: webhook rejected, no signing secret configured")
		return Event{}, ErrInvalidSignature
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		g.logger.Printf("stripe: webhook verification error=%v", err)
		return Event{}, ErrInvalidSignature
	}
	out := Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data != nil && len(evt.Data.Raw) > 0 {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return Event{}, fmt.Errorf("decode payment intent: %w", err)
		}
		out.PaymentRef = pi.ID
	}
	return out, nil
}
