package product

import (
	"context"

	"shophub/internal/domain"
)

// StockLine is one decrement or restore request against a product's stock.
type StockLine struct {
	ProductID string
	Quantity  int
}

type Repository interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	List(ctx context.Context, limit int) ([]domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	// Upsert inserts p under p.ID, or overwrites the product already stored with that id.
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
