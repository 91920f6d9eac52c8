package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/product/domain"
	"github.com/dmehra2102/storefront/pkg/bus"
)

type ProductQueries interface {
	AvailableQuantity(ctx context.Context, productID string) (int, error)
	PriceCents(ctx context.Context, productID string) (int64, error)
}

// RegisterResponders answers the stock and price queries from the product
// service's own store. Responders are protocol leaves: they never issue bus
// requests of their own, so reply cycles cannot form.
func RegisterResponders(log *slog.Logger, responder *bus.Responder, svc ProductQueries) {
	responder.Handle(domain.QueryTypeStockQuantity, func(ctx context.Context, payload []byte) ([]byte, error) {
		var req domain.StockQuantityRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("malformed %s: %w", domain.QueryTypeStockQuantity, err)
		}
		qty, err := svc.AvailableQuantity(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(domain.StockQuantityResponse{ProductID: req.ProductID, AvailableQuantity: qty})
	})

	responder.Handle(domain.QueryTypePrice, func(ctx context.Context, payload []byte) ([]byte, error) {
		var req domain.PriceRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("malformed %s: %w", domain.QueryTypePrice, err)
		}
		price, err := svc.PriceCents(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(domain.PriceResponse{ProductID: req.ProductID, PriceCents: price})
	})
}
