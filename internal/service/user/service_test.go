package user

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"shophub/internal/auth"
	"shophub/internal/domain"
	userrepo "shophub/internal/repository/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memoryRepo is a lightweight in-memory user repository for tests.
type memoryRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	nextSeq int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: map[string]domain.User{}}
}

func (r *memoryRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, domain.ErrAlreadyExists
		}
	}
	r.nextSeq++
	u.ID = "user-" + strconv.Itoa(r.nextSeq)
	r.byID[u.ID] = u
	return &u, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) UpdateCart(_ context.Context, id string, fn userrepo.CartMutation) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next, err := fn(u.Cart)
	if err != nil {
		return nil, err
	}
	u.Cart = next
	r.byID[id] = u
	return next, nil
}

type stubProducts struct {
	known map[string]bool
}

func (s stubProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	if !s.known[id] {
		return nil, domain.ErrNotFound
	}
	return &domain.Product{ID: id}, nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := New(repo, stubProducts{known: map[string]bool{"mug": true, "tee": true}}, auth.NewManager("test-secret"))
	svc.hashCost = bcrypt.MinCost
	return svc, repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, token, err := svc.Register(ctx, RegisterInput{Email: " Ann@Example.com ", Password: "password1", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.NotEqual(t, "password1", u.PasswordHash)
	assert.NotEmpty(t, token)

	me, err := svc.LookupByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	logged, token2, err := svc.Login(ctx, "ANN@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	sub, err := svc.Subject(token2)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sub)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{Email: "", Password: "password1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "password1"})
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, RegisterInput{Email: "A@B.C", Password: "password2"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "password1"})
	require.NoError(t, err)

	_, _, unknown := svc.Login(ctx, "nobody@b.c", "password1")
	_, _, wrong := svc.Login(ctx, "a@b.c", "password2")

	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.ErrorIs(t, wrong, ErrInvalidCredentials)
	assert.Equal(t, unknown.Error(), wrong.Error())
}

func TestLookupByTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.LookupByToken(context.Background(), "nope")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestCartOperations(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u, _, err := svc.Register(ctx, RegisterInput{Email: "cart@b.c", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.AddToCart(ctx, u.ID, "mug", 2)
	require.NoError(t, err)
	cart, err := svc.AddToCart(ctx, u.ID, "mug", 2)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, 4, cart[0].Quantity)

	cart, err = svc.AddToCart(ctx, u.ID, "tee", 1)
	require.NoError(t, err)
	assert.Len(t, cart, 2)

	cart, err = svc.RemoveFromCart(ctx, u.ID, "mug")
	require.NoError(t, err)
	assert.Equal(t, domain.Cart{{ProductID: "tee", Quantity: 1}}, cart)

	got, err := svc.Cart(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, cart, got)

	cart, err = svc.ClearCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestAddToCartValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u, _, err := svc.Register(ctx, RegisterInput{Email: "v@b.c", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.AddToCart(ctx, u.ID, "mug", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.AddToCart(ctx, u.ID, " ", 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.AddToCart(ctx, u.ID, "ghost", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.AddToCart(ctx, u.ID, "mug", domain.MaxLineQuantity+1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.AddToCart(ctx, u.ID, "mug", domain.MaxLineQuantity)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, u.ID, "mug", 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.AddToCart(ctx, "missing-user", "mug", 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}
