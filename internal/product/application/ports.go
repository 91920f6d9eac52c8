package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/product/domain"
)

type ProductRepository interface {
	// SaveWithOutbox upserts the product and enqueues its lifecycle event in
	// the same transaction.
	SaveWithOutbox(ctx context.Context, p domain.Product, eventType string, payload []byte, traceparent string) error
	DeleteWithOutbox(ctx context.Context, id string, eventType string, payload []byte, traceparent string) error
	Get(ctx context.Context, id string) (domain.Product, error)
	// Quantity and Price answer 0 for a missing product.
	Quantity(ctx context.Context, id string) (int, error)
	Price(ctx context.Context, id string) (int64, error)
	// AdjustQuantity applies a signed delta clamped at zero; a missing
	// product is a no-op.
	AdjustQuantity(ctx context.Context, id string, delta int) error
}
