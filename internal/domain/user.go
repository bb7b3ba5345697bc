package domain

import "time"

// User is a registered storefront account. The cart is the server-side mirror of the
// client cart; Orders holds order ids created at checkout with the user's email.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Cart         Cart      `json:"cart"`
	Orders       []string  `json:"orders"`
	CreatedAt    time.Time `json:"createdAt"`
}
