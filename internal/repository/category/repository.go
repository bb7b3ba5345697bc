package category

import (
	"context"

	"shophub/internal/domain"
)

// Repository reads the categories products are filed under.
type Repository interface {
	List(ctx context.Context) ([]domain.Category, error)
}
