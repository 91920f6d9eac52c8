package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/cart/domain"
)

type CartRepository interface {
	// EnsureCart creates an empty cart for the user unless one exists.
	// A concurrent create racing on the user id is a benign no-op.
	EnsureCart(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (domain.Cart, error)
	// ItemQuantity returns 0 for an absent item.
	ItemQuantity(ctx context.Context, userID, productID string) (int, error)
	// AddItemQuantity upserts the item, summing quantities atomically at
	// the storage layer.
	AddItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	// ApplyItemDelta adds delta to the stored quantity in one statement and
	// removes the row when the result drops to zero or below. Returns the
	// resulting quantity (0 when removed).
	ApplyItemDelta(ctx context.Context, userID, productID string, delta int) (int, error)
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

type StockChecker interface {
	AvailableQuantity(ctx context.Context, productID string) (int, error)
}
