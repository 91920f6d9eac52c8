package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/order/domain"
)

// OutboxRecord is one event to enqueue alongside the order row.
type OutboxRecord struct {
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
}

type OrderRepository interface {
	// SaveWithOutbox persists the order and all follow-up events in one
	// transaction.
	SaveWithOutbox(ctx context.Context, o domain.Order, events []OutboxRecord, traceparent string) error
	Get(ctx context.Context, id string) (domain.Order, error)
}

type PriceLookup interface {
	PriceCents(ctx context.Context, productID string) (int64, error)
}
