package category

import (
	"context"
	"testing"

	"shophub/internal/testdb"
)

func TestPostgres_ListGroupsProducts(t *testing.T) {
	ctx := context.Background()
	pool := testdb.Pool(t)

	_, err := pool.Exec(ctx, `
INSERT INTO products (name, price, category) VALUES
    ('Mug', 9.99, 'kitchen'),
    ('Plate', 4.50, 'kitchen'),
    ('Tee', 19.99, 'apparel'),
    ('Loose', 1, '')
`)
	if err != nil {
		t.Fatalf("insert products: %v", err)
	}

	list, err := NewPostgres(pool).List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 categories, got %+v", list)
	}
	if list[0].Name != "apparel" || list[0].ProductCount != 1 {
		t.Fatalf("unexpected first category %+v", list[0])
	}
	if list[1].Name != "kitchen" || list[1].ProductCount != 2 {
		t.Fatalf("unexpected second category %+v", list[1])
	}
}
