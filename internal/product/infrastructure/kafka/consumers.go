package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/product/domain"
	"github.com/dmehra2102/storefront/pkg/bus"
)

type StockAdjuster interface {
	AdjustStock(ctx context.Context, productID string, delta int) error
}

func RegisterEventHandlers(log *slog.Logger, orderEvents *bus.Consumer, svc StockAdjuster) {
	orderEvents.Handle(domain.EventTypeStockAdjusted, func(ctx context.Context, payload []byte) error {
		var ev domain.StockAdjusted
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("malformed %s: %w", domain.EventTypeStockAdjusted, err)
		}
		if ev.ProductID == "" {
			return fmt.Errorf("malformed %s: empty product id", domain.EventTypeStockAdjusted)
		}
		if err := svc.AdjustStock(ctx, ev.ProductID, ev.QuantityDelta); err != nil {
			return err
		}
		log.Info("stock adjusted", "product_id", ev.ProductID, "delta", ev.QuantityDelta)
		return nil
	})
}
