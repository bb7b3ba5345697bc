package product

import (
	"context"
	"fmt"
	"strings"

	"shophub/internal/domain"
	productrepo "shophub/internal/repository/product"

	"github.com/shopspring/decimal"
)

var maxRating = decimal.NewFromInt(5)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Input is the writable part of a product, shared by create and update.
type Input struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
	Rating      decimal.Decimal `json:"rating"`
	Reviews     []domain.Review `json:"reviews"`
}

// List returns the first catalog page.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx, domain.MaxPageSize)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Product, error) {
	p, err := in.Product()
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

// Update replaces the writable fields of product id. Reviews are kept when in.Reviews is nil.
func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Product, error) {
	p, err := in.Product()
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ID = existing.ID
	if in.Reviews == nil {
		p.Reviews = existing.Reviews
	}
	return s.repo.Update(ctx, p)
}

// Product validates in and returns the normalized product it describes, without an id.
func (in Input) Product() (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: name required", domain.ErrValidation)
	}
	if in.Price.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	if !in.Price.Equal(in.Price.Round(2)) {
		return domain.Product{}, fmt.Errorf("%w: price must have at most 2 decimal places", domain.ErrValidation)
	}
	if in.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock must not be negative", domain.ErrValidation)
	}
	if in.Rating.IsNegative() || in.Rating.GreaterThan(maxRating) {
		return domain.Product{}, fmt.Errorf("%w: rating must be between 0 and 5", domain.ErrValidation)
	}
	return domain.Product{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Stock:       in.Stock,
		Image:       strings.TrimSpace(in.Image),
		Rating:      in.Rating,
		Reviews:     in.Reviews,
	}, nil
}
