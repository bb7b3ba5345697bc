package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"shophub/internal/domain"
	"shophub/internal/payment"
	orderrepo "shophub/internal/repository/order"
)

type Service struct {
	repo     orderrepo.Repository
	payments payment.Gateway
	logger   *log.Logger
}

func New(repo orderrepo.Repository, payments payment.Gateway, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, payments: payments, logger: logger}
}

// ListByUser returns the newest orders placed with the given email.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, strings.ToLower(strings.TrimSpace(userID)), domain.MaxPageSize)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// WebhookOutcome reports what a processor event did. Applied is false for ignored,
// unknown or repeated events.
type WebhookOutcome struct {
	EventType string             `json:"eventType"`
	OrderID   string             `json:"orderId,omitempty"`
	Status    domain.OrderStatus `json:"status,omitempty"`
	Applied   bool               `json:"applied"`
}

// HandleWebhook verifies a processor event and settles the matching order.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookOutcome, error) {
	evt, err := s.payments.ParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return WebhookOutcome{}, err
		}
		return WebhookOutcome{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	out := WebhookOutcome{EventType: evt.Type}

	var target domain.OrderStatus
	switch evt.Type {
	case payment.EventSucceeded:
		target = domain.OrderSucceeded
	case payment.EventFailed, payment.EventCanceled:
		target = domain.OrderFailed
	default:
		s.logger.Printf("order service: ignored event type=%s", evt.Type)
		return out, nil
	}

	o, changed, err := s.repo.TransitionStatus(ctx, evt.PaymentRef, target)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Printf("order service: event type=%s payment_ref=%s has no order", evt.Type, evt.PaymentRef)
			return out, nil
		}
		return WebhookOutcome{}, err
	}
	out.OrderID = o.ID
	out.Status = o.Status
	out.Applied = changed
	if changed {
		s.logger.Printf("order service: order id=%s status=%s payment_ref=%s", o.ID, o.Status, evt.PaymentRef)
	} else {
		s.logger.Printf("order service: order id=%s already %s, event type=%s ignored", o.ID, o.Status, evt.Type)
	}
	return out, nil
}
