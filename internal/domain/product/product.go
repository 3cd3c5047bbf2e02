package product

import (
	"errors"
	"time"
)

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusOutOfStock Status = "OUT_OF_STOCK"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrNegativeInventory = errors.New("inventory cannot be negative")
)

// Product holds the catalog fields fulfillment reads and mutates.
type Product struct {
	ID        string    `json:"id"`
	BrandID   string    `json:"brandId"`
	Name      string    `json:"name"`
	Inventory int       `json:"inventory"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Restock returns a copy of p with quantity units added back to inventory.
// A product that was OUT_OF_STOCK becomes ACTIVE once inventory is positive;
// INACTIVE products stay INACTIVE.
func (p Product) Restock(quantity int) (Product, error) {
	if quantity <= 0 {
		return p, ErrInvalidQuantity
	}
	if p.Inventory < 0 {
		return p, ErrNegativeInventory
	}
	next := p
	next.Inventory = p.Inventory + quantity
	if p.Status == StatusOutOfStock && next.Inventory > 0 {
		next.Status = StatusActive
	}
	return next, nil
}
