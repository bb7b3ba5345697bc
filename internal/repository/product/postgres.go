package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"

	"shophub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const productColumns = `id::text, name, description, price::text, category, stock, image, rating::text, reviews, created_at`

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

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	reviews, err := marshalReviews(p.Reviews)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO products (name, description, price, category, stock, image, rating, reviews)
VALUES ($1, $2, $3::numeric, $4, $5, $6, $7::numeric, $8)
RETURNING ` + productColumns
	out, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.Name, p.Description, p.Price.String(), p.Category, p.Stock, p.Image, p.Rating.String(), reviews,
	))
	if err != nil {
		r.logger.Printf("product repo: create name=%q error=%v", p.Name, err)
		return nil, err
	}
	r.logger.Printf("product repo: created id=%s name=%q", out.ID, out.Name)
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("product repo: get id=%s not found", id)
		} else {
			r.logger.Printf("product repo: get id=%s error=%v", id, err)
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1::text[]::uuid[])`
	rows, err := r.pool.Query(ctx, q, validIDs(ids))
	if err != nil {
		r.logger.Printf("product repo: get many count=%d error=%v", len(ids), err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) List(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 || limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}
	q := `SELECT ` + productColumns + ` FROM products ORDER BY created_at ASC, id ASC LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	r.logger.Printf("product repo: list count=%d", len(result))
	return result, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if _, err := uuid.Parse(p.ID); err != nil {
		return nil, domain.ErrNotFound
	}
	reviews, err := marshalReviews(p.Reviews)
	if err != nil {
		return nil, err
	}
	q := `
UPDATE products
SET name = $2,
    description = $3,
    price = $4::numeric,
    category = $5,
    stock = $6,
    image = $7,
    rating = $8::numeric,
    reviews = $9
WHERE id = $1
RETURNING ` + productColumns
	out, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category, p.Stock, p.Image, p.Rating.String(), reviews,
	))
	if err != nil {
		r.logger.Printf("product repo: update id=%s error=%v", p.ID, err)
		return nil, err
	}
	r.logger.Printf("product repo: updated id=%s", out.ID)
	return out, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if _, err := uuid.Parse(p.ID); err != nil {
		return nil, fmt.Errorf("%w: upsert needs a uuid id, got %q", domain.ErrValidation, p.ID)
	}
	reviews, err := marshalReviews(p.Reviews)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO products (id, name, description, price, category, stock, image, rating, reviews)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8::numeric, $9)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    category = EXCLUDED.category,
    stock = EXCLUDED.stock,
    image = EXCLUDED.image,
    rating = EXCLUDED.rating,
    reviews = EXCLUDED.reviews
RETURNING ` + productColumns
	out, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category, p.Stock, p.Image, p.Rating.String(), reviews,
	))
	if err != nil {
		r.logger.Printf("product repo: upsert id=%s error=%v", p.ID, err)
		return nil, err
	}
	r.logger.Printf("product repo: upserted id=%s name=%q", out.ID, out.Name)
	return out, nil
}

// DecrementStock takes quantity out of every line's product inside tx. It fails with
// domain.ErrInsufficientStock, leaving the caller to roll back, when any product runs short.
// Rows are locked in product id order so concurrent orders cannot deadlock.
func DecrementStock(ctx context.Context, tx pgx.Tx, lines []StockLine) error {
	for _, l := range lockOrder(lines) {
		tag, err := tx.Exec(ctx, `
UPDATE products
SET stock = stock - $2
WHERE id = $1 AND stock >= $2
`, l.ProductID, l.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: product %s", domain.ErrInsufficientStock, l.ProductID)
		}
	}
	return nil
}

// RestoreStock puts quantities back, used when an order's payment fails.
func RestoreStock(ctx context.Context, tx pgx.Tx, lines []StockLine) error {
	for _, l := range lockOrder(lines) {
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, l.ProductID, l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// lockOrder returns lines sorted by product id, leaving the input untouched.
func lockOrder(lines []StockLine) []StockLine {
	out := slices.Clone(lines)
	slices.SortStableFunc(out, func(a, b StockLine) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return out
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p             domain.Product
		price, rating string
		reviewsJSON   []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.Stock, &p.Image, &rating, &reviewsJSON, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("decode price id=%s: %w", p.ID, err)
	}
	if p.Rating, err = decimal.NewFromString(rating); err != nil {
		return nil, fmt.Errorf("decode rating id=%s: %w", p.ID, err)
	}
	p.Reviews = []domain.Review{}
	if len(reviewsJSON) > 0 {
		if err := json.Unmarshal(reviewsJSON, &p.Reviews); err != nil {
			return nil, fmt.Errorf("decode reviews id=%s: %w", p.ID, err)
		}
	}
	return &p, nil
}

// validIDs drops ids that are not uuids; they cannot match a row.
func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func marshalReviews(reviews []domain.Review) ([]byte, error) {
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return json.Marshal(reviews)
}
