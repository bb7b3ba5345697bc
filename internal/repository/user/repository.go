package user

import (
	"context"

	"shophub/internal/domain"
)

// CartMutation computes a new cart from the stored one.
type CartMutation func(current domain.Cart) (domain.Cart, error)

// Repository persists accounts and their server-side carts.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// UpdateCart applies fn to the stored cart under a row lock and persists the result.
	UpdateCart(ctx context.Context, id string, fn CartMutation) (domain.Cart, error)
}
