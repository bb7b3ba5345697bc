package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxPageSize bounds every find-all query.
const MaxPageSize = 50

type Review struct {
	UserID  string          `json:"userId"`
	Comment string          `json:"comment"`
	Rating  decimal.Decimal `json:"rating"`
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image,omitempty"`
	Rating      decimal.Decimal `json:"rating"`
	Reviews     []Review        `json:"reviews"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Category is a distinct product category with the number of products filed under it.
type Category struct {
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
}
