// Package storefront renders the browser client: catalog grid, cart and checkout form.
package storefront

import (
	"embed"
	"html/template"
	"io"

	"shophub/internal/domain"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var pageTemplate = template.Must(template.New("index.html.tmpl").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).ParseFS(templatesFS, "templates/index.html.tmpl"))

type Page struct {
	Title          string
	Products       []domain.Product
	Cart           *Cart
	UserID         string
	PublishableKey string
	Currency       string
}

// State is handed to the page script as its starting point.
type State struct {
	Products       []productState `json:"products"`
	Cart           domain.Cart    `json:"cart"`
	UserID         string         `json:"userId,omitempty"`
	PublishableKey string         `json:"publishableKey,omitempty"`
	Currency       string         `json:"currency"`
}

type productState struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
}

func (p Page) State() State {
	products := make([]productState, 0, len(p.Products))
	for _, prod := range p.Products {
		products = append(products, productState{ID: prod.ID, Name: prod.Name, Price: prod.Price.StringFixed(2), Stock: prod.Stock})
	}
	cart := domain.Cart{}
	if p.Cart != nil {
		cart = p.Cart.Items()
	}
	return State{
		Products:       products,
		Cart:           cart,
		UserID:         p.UserID,
		PublishableKey: p.PublishableKey,
		Currency:       p.Currency,
	}
}

// Render writes the page. A nil Cart renders as empty.
func Render(w io.Writer, p Page) error {
	if p.Cart == nil {
		p.Cart = NewCart()
	}
	if p.Title == "" {
		p.Title = "ShopHub"
	}
	return pageTemplate.Execute(w, p)
}
