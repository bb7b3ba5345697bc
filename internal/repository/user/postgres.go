package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"shophub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id::text, email, password_hash, name, cart, orders, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	cart, err := json.Marshal(nonNilCart(u.Cart))
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO users (email, password_hash, name, cart)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns
	out, err := r.scanUser(r.pool.QueryRow(ctx, q, strings.ToLower(u.Email), u.PasswordHash, u.Name, cart))
	if err != nil {
		return nil, err
	}
	r.logger.Printf("user repo: created id=%s", out.ID)
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) UpdateCart(ctx context.Context, id string, fn CartMutation) (domain.Cart, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var raw []byte
	if err := tx.QueryRow(ctx, `SELECT cart FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	current, err := decodeCart(raw)
	if err != nil {
		return nil, fmt.Errorf("decode cart user_id=%s: %w", id, err)
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	next = nonNilCart(next)
	encoded, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET cart = $2 WHERE id = $1`, id, encoded); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("user repo: cart updated user_id=%s lines=%d", id, len(next))
	return next, nil
}

// AppendOrder records orderID on the account registered with email, if there is one.
func AppendOrder(ctx context.Context, tx pgx.Tx, email, orderID string) error {
	_, err := tx.Exec(ctx, `
UPDATE users
SET orders = orders || to_jsonb($2::text)
WHERE lower(email) = lower($1)
`, email, orderID)
	return err
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u                  domain.User
		cartJSON, orderIDs []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &cartJSON, &orderIDs, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("user repo: scan error=%v", err)
		return nil, err
	}
	if u.Cart, err = decodeCart(cartJSON); err != nil {
		r.logger.Printf("user repo: decode cart id=%s err=%v", u.ID, err)
		return nil, err
	}
	u.Orders = []string{}
	if len(orderIDs) > 0 {
		if err := json.Unmarshal(orderIDs, &u.Orders); err != nil {
			r.logger.Printf("user repo: decode orders id=%s err=%v", u.ID, err)
			return nil, err
		}
	}
	return &u, nil
}

func decodeCart(raw []byte) (domain.Cart, error) {
	cart := domain.Cart{}
	if len(raw) == 0 {
		return cart, nil
	}
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func nonNilCart(c domain.Cart) domain.Cart {
	if c == nil {
		return domain.Cart{}
	}
	return c
}
