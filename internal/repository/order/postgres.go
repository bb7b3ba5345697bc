package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"shophub/internal/domain"
	"shophub/internal/repository/product"
	"shophub/internal/repository/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const orderColumns = `id::text, user_id, items, total::text, status, payment_ref, shipping_address, created_at, updated_at`

const insertOrder = `
INSERT INTO orders (user_id, items, total, status, payment_ref, shipping_address)
VALUES ($1, $2, $3::numeric, $4, $5, $6)
RETURNING ` + orderColumns

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	args, err := insertArgs(o)
	if err != nil {
		return nil, err
	}
	out, err := scanOrder(r.pool.QueryRow(ctx, insertOrder, args...))
	if err != nil {
		r.logger.Printf("order repo: create user_id=%s error=%v", o.UserID, err)
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s user_id=%s total=%s", out.ID, out.UserID, out.Total.StringFixed(2))
	return out, nil
}

func (r *postgresRepo) Place(ctx context.Context, o domain.Order) (*domain.Order, error) {
	args, err := insertArgs(o)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := product.DecrementStock(ctx, tx, stockLines(o.Items)); err != nil {
		r.logger.Printf("order repo: place user_id=%s stock error=%v", o.UserID, err)
		return nil, err
	}
	out, err := scanOrder(tx.QueryRow(ctx, insertOrder, args...))
	if err != nil {
		r.logger.Printf("order repo: place user_id=%s insert error=%v", o.UserID, err)
		return nil, err
	}
	if err := user.AppendOrder(ctx, tx, o.UserID, out.ID); err != nil {
		return nil, fmt.Errorf("link order to user: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: placed id=%s user_id=%s payment_ref=%s", out.ID, out.UserID, out.PaymentRef)
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByPaymentRef(ctx context.Context, ref string) (*domain.Order, error) {
	if ref == "" {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + orderColumns + ` FROM orders WHERE payment_ref = $1`
	return scanOrder(r.pool.QueryRow(ctx, q, ref))
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	if limit <= 0 || limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}
	q := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		r.logger.Printf("order repo: list user_id=%s error=%v", userID, err)
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) TransitionStatus(ctx context.Context, ref string, status domain.OrderStatus) (*domain.Order, bool, error) {
	if ref == "" {
		return nil, false, domain.ErrNotFound
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	current, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_ref = $1 FOR UPDATE`, ref))
	if err != nil {
		return nil, false, err
	}
	if current.Status.Terminal() {
		return current, false, nil
	}

	if status == domain.OrderFailed {
		if err := product.RestoreStock(ctx, tx, stockLines(current.Items)); err != nil {
			return nil, false, fmt.Errorf("restore stock order_id=%s: %w", current.ID, err)
		}
	}
	updated, err := scanOrder(tx.QueryRow(ctx, `
UPDATE orders SET status = $2, updated_at = now()
WHERE id = $1
RETURNING `+orderColumns, current.ID, string(status)))
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	r.logger.Printf("order repo: transition id=%s from=%s to=%s", updated.ID, current.Status, updated.Status)
	return updated, true, nil
}

func insertArgs(o domain.Order) ([]any, error) {
	items := o.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	status := o.Status
	if status == "" {
		status = domain.OrderPending
	}
	var shipping []byte
	if len(o.ShippingAddress) > 0 && string(o.ShippingAddress) != "null" {
		shipping = o.ShippingAddress
	}
	return []any{o.UserID, encoded, o.Total.StringFixed(2), string(status), o.PaymentRef, shipping}, nil
}

func stockLines(items []domain.OrderItem) []product.StockLine {
	lines := make([]product.StockLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, product.StockLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o               domain.Order
		items, shipping []byte
		total, status   string
	)
	err := row.Scan(&o.ID, &o.UserID, &items, &total, &status, &o.PaymentRef, &shipping, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total order_id=%s: %w", o.ID, err)
	}
	o.Items = []domain.OrderItem{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items order_id=%s: %w", o.ID, err)
		}
	}
	if len(shipping) > 0 {
		o.ShippingAddress = json.RawMessage(shipping)
	}
	return &o, nil
}
