// Package user covers account registration, login and the server-side cart mirror.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shophub/internal/auth"
	"shophub/internal/domain"
	userrepo "shophub/internal/repository/user"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when email/password do not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

type productLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type Service struct {
	repo        userrepo.Repository
	products    productLookup
	tokens      *auth.Manager
	passwordMin int
	hashCost    int
}

func New(repo userrepo.Repository, products productLookup, tokens *auth.Manager) *Service {
	return &Service{
		repo:        repo,
		products:    products,
		tokens:      tokens,
		passwordMin: 8,
		hashCost:    bcrypt.DefaultCost,
	}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register creates the account and returns it with a freshly issued token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: valid email required", domain.ErrValidation)
	}
	if len(in.Password) < s.passwordMin {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, s.passwordMin)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, "", err
	}

	u, err := s.repo.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: string(hashed),
		Name:         strings.TrimSpace(in.Name),
		Cart:         domain.Cart{},
	})
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login validates credentials. Unknown email and wrong password fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// LookupByToken returns the user a valid token was issued to.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// Subject verifies token and returns its user id without loading the account.
func (s *Service) Subject(token string) (string, error) {
	return s.tokens.Verify(token)
}

func (s *Service) Cart(ctx context.Context, userID string) (domain.Cart, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Cart, nil
}

// AddToCart increments the line for productID, creating it when absent.
func (s *Service) AddToCart(ctx context.Context, userID, productID string, quantity int) (domain.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("%w: productId required", domain.ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.UpdateCart(ctx, userID, func(c domain.Cart) (domain.Cart, error) {
		if quantity > domain.MaxLineQuantity || c.Quantity(productID)+quantity > domain.MaxLineQuantity {
			return nil, fmt.Errorf("%w: quantity must be at most %d", domain.ErrValidation, domain.MaxLineQuantity)
		}
		return c.AddOrIncrement(productID, quantity), nil
	})
}

func (s *Service) RemoveFromCart(ctx context.Context, userID, productID string) (domain.Cart, error) {
	return s.repo.UpdateCart(ctx, userID, func(c domain.Cart) (domain.Cart, error) {
		return c.Remove(productID), nil
	})
}

func (s *Service) ClearCart(ctx context.Context, userID string) (domain.Cart, error) {
	return s.repo.UpdateCart(ctx, userID, func(domain.Cart) (domain.Cart, error) {
		return domain.Cart{}, nil
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
