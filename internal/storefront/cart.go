package storefront

import (
	"shophub/internal/domain"

	"github.com/shopspring/decimal"
)

// Line is one rendered cart row.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Cart is the shopper's cart as the page sees it: catalog entries plus quantities.
// It is owned by a single page render and is not safe for concurrent use.
type Cart struct {
	lines    domain.Cart
	products map[string]domain.Product
}

func NewCart() *Cart {
	return &Cart{lines: domain.Cart{}, products: map[string]domain.Product{}}
}

// FromLines rebuilds a cart from stored lines. Lines whose product is not in catalog are dropped.
func FromLines(lines domain.Cart, catalog []domain.Product) *Cart {
	byID := make(map[string]domain.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}
	c := NewCart()
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok || l.Quantity < 1 {
			continue
		}
		c.products[p.ID] = p
		c.lines = c.lines.AddOrIncrement(p.ID, l.Quantity)
	}
	return c
}

// Count is the number of distinct products in the cart.
func (c *Cart) Count() int {
	return len(c.lines)
}

func (c *Cart) Total() decimal.Decimal {
	return c.lines.Total(func(id string) (decimal.Decimal, bool) {
		p, ok := c.products[id]
		return p.Price, ok
	})
}

func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.lines))
	for _, l := range c.lines {
		p := c.products[l.ProductID]
		out = append(out, Line{
			ProductID: l.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  l.Quantity,
			Subtotal:  p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2),
		})
	}
	return out
}

// Items returns the bare lines posted to checkout.
func (c *Cart) Items() domain.Cart {
	out := make(domain.Cart, len(c.lines))
	copy(out, c.lines)
	return out
}
