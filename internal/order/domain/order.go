package domain

import "time"

type OrderStatus string

const (
	StatusPlaced   OrderStatus = "placed"
	StatusCanceled OrderStatus = "canceled"
)

type Order struct {
	ID         string
	UserID     string
	Items      []OrderItem
	TotalCents int64
	Status     OrderStatus
	CreatedAt  time.Time
}

type OrderItem struct {
	ProductID  string
	Quantity   int
	PriceCents int64
}

func NewOrder(id, userID string, items []OrderItem) Order {
	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.PriceCents
	}
	return Order{
		ID:         id,
		UserID:     userID,
		Items:      items,
		TotalCents: total,
		Status:     StatusPlaced,
		CreatedAt:  time.Now().UTC(),
	}
}
