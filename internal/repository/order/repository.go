package order

import (
	"context"

	"shophub/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	// Place decrements stock for every item, inserts o and links it to the account
	// registered with o.UserID, all in one transaction.
	Place(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByPaymentRef(ctx context.Context, ref string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error)
	// TransitionStatus moves the order holding ref to status if it is not terminal yet.
	// changed is false when the order was already terminal. Moving to failed restores stock.
	TransitionStatus(ctx context.Context, ref string, status domain.OrderStatus) (o *domain.Order, changed bool, err error)
}
