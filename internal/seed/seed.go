package seed

import (
	"context"
	"fmt"

	"shophub/internal/domain"

	"github.com/shopspring/decimal"
)

// ProductWriter stores a product under its own id, overwriting any earlier copy.
type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

// demoProducts carry fixed ids so reseeding overwrites instead of duplicating.
var demoProducts = []domain.Product{
	{
		ID:          "0b6f1d52-3c3e-4d7a-9a43-5d1f2a7c0001",
		Name:        "Demo Mug",
		Description: "Ceramic mug with demo logo",
		Price:       decimal.RequireFromString("9.99"),
		Category:    "kitchen",
		Stock:       25,
		Image:       "https://picsum.photos/seed/mug/400/300",
		Rating:      decimal.RequireFromString("4.5"),
		Reviews: []domain.Review{
			{UserID: "demo", Comment: "Keeps coffee warm", Rating: decimal.NewFromInt(5)},
		},
	},
	{
		ID:          "0b6f1d52-3c3e-4d7a-9a43-5d1f2a7c0002",
		Name:        "Demo T-Shirt",
		Description: "Soft cotton tee for demo purposes",
		Price:       decimal.RequireFromString("19.99"),
		Category:    "apparel",
		Stock:       40,
		Image:       "https://picsum.photos/seed/tee/400/300",
		Rating:      decimal.RequireFromString("4.1"),
	},
	{
		ID:          "0b6f1d52-3c3e-4d7a-9a43-5d1f2a7c0003",
		Name:        "Demo Tote",
		Description: "Canvas tote bag",
		Price:       decimal.RequireFromString("14.50"),
		Category:    "apparel",
		Stock:       15,
		Image:       "https://picsum.photos/seed/tote/400/300",
	},
	{
		ID:          "0b6f1d52-3c3e-4d7a-9a43-5d1f2a7c0004",
		Name:        "Demo Notebook",
		Description: "A5 dotted notebook",
		Price:       decimal.RequireFromString("6.25"),
		Category:    "stationery",
		Stock:       60,
		Image:       "https://picsum.photos/seed/notebook/400/300",
		Rating:      decimal.RequireFromString("3.9"),
	},
}

// Apply inserts demo catalog data for manual testing. It is idempotent.
func Apply(ctx context.Context, repo ProductWriter) (int, error) {
	for _, p := range demoProducts {
		if _, err := repo.Upsert(ctx, p); err != nil {
			return 0, fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}
	return len(demoProducts), nil
}
