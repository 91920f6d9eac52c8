package domain

import "time"

// CartItem quantity is always >= 1; an item reduced to zero is removed,
// never stored.
type CartItem struct {
	ProductID string
	Quantity  int
}

// Cart is unique per owning user. It is emptied on order completion, not
// deleted.
type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	CreatedAt time.Time
}
