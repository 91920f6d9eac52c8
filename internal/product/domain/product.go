package domain

import "time"

// Product carries the authoritative stock figure. Other services never
// persist stock; they query it over the bus.
type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Quantity    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewProduct(id, name, description string, priceCents int64, quantity int) Product {
	now := time.Now().UTC()
	return Product{
		ID:          id,
		Name:        name,
		Description: description,
		PriceCents:  priceCents,
		Quantity:    quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
