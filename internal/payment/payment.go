// Package payment talks to the card processor: it opens payment intents at checkout,
// cancels them when an order cannot be stored and decodes the processor's webhook events.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	EventSucceeded = "payment_intent.succeeded"
	EventFailed    = "payment_intent.payment_failed"
	EventCanceled  = "payment_intent.canceled"
)

var (
	// ErrInvalidSignature is returned when a webhook payload fails verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrInvalidAmount rejects zero or negative charges.
	ErrInvalidAmount = errors.New("amount must be positive")
)

type IntentRequest struct {
	AmountCents    int64
	Currency       string
	Email          string
	IdempotencyKey string
}

type Intent struct {
	ID           string
	ClientSecret string
}

// Event is the subset of a processor event the order store acts on.
type Event struct {
	ID         string
	Type       string
	PaymentRef string
}

type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	CancelIntent(ctx context.Context, id string) error
	ParseEvent(payload []byte, signature string) (Event, error)
}

// ToCents converts a decimal amount to minor units, rounding half away from zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// rawEvent is the unsigned envelope shape shared by the processor and the mock gateway.
type rawEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

func decodeRawEvent(payload []byte) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if raw.Type == "" {
		return Event{}, errors.New("decode event: type missing")
	}
	return Event{ID: raw.ID, Type: raw.Type, PaymentRef: raw.Data.Object.ID}, nil
}
