package domain

import "github.com/shopspring/decimal"

// MaxLineQuantity caps a single cart or order line.
const MaxLineQuantity = 10000

type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart is a set of lines keyed by product id. Operations return a new Cart and leave the
// receiver untouched.
type Cart []CartLine

// PriceLookup resolves a product's unit price. ok is false for unknown products.
type PriceLookup func(productID string) (price decimal.Decimal, ok bool)

// AddOrIncrement adds quantity to the line for productID, appending a new line if none exists.
func (c Cart) AddOrIncrement(productID string, quantity int) Cart {
	out := make(Cart, 0, len(c)+1)
	found := false
	for _, line := range c {
		if line.ProductID == productID && !found {
			line.Quantity += quantity
			found = true
		}
		out = append(out, line)
	}
	if !found {
		out = append(out, CartLine{ProductID: productID, Quantity: quantity})
	}
	return out
}

// Remove drops every line for productID.
func (c Cart) Remove(productID string) Cart {
	out := make(Cart, 0, len(c))
	for _, line := range c {
		if line.ProductID != productID {
			out = append(out, line)
		}
	}
	return out
}

// Quantity returns the quantity held for productID, zero if absent.
func (c Cart) Quantity(productID string) int {
	for _, line := range c {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

// Total is the sum of price x quantity rounded to cents. Unknown products contribute zero.
func (c Cart) Total(price PriceLookup) decimal.Decimal {
	total := decimal.Zero
	for _, line := range c {
		p, ok := price(line.ProductID)
		if !ok {
			continue
		}
		total = total.Add(p.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total.Round(2)
}
