package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	orderdom "github.com/dmehra2102/storefront/internal/order/domain"
	userdom "github.com/dmehra2102/storefront/internal/user/domain"
	"github.com/dmehra2102/storefront/pkg/bus"
)

type CartService interface {
	EnsureCart(ctx context.Context, userID string) error
	Clear(ctx context.Context, userID string) error
}

// RegisterEventHandlers wires the cart-side event consumers. Both handlers
// are idempotent: ensure-cart skips existing carts, clear empties an already
// empty cart without complaint.
func RegisterEventHandlers(log *slog.Logger, userEvents, orderEvents *bus.Consumer, svc CartService) {
	userEvents.Handle(userdom.EventTypeAccountCreated, func(ctx context.Context, payload []byte) error {
		var ev userdom.AccountCreated
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("malformed %s: %w", userdom.EventTypeAccountCreated, err)
		}
		if ev.UserID == "" {
			return fmt.Errorf("malformed %s: empty user id", userdom.EventTypeAccountCreated)
		}
		if err := svc.EnsureCart(ctx, ev.UserID); err != nil {
			return err
		}
		log.Info("cart ensured", "user_id", ev.UserID)
		return nil
	})

	orderEvents.Handle(orderdom.EventTypeCartCleared, func(ctx context.Context, payload []byte) error {
		var ev orderdom.CartCleared
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("malformed %s: %w", orderdom.EventTypeCartCleared, err)
		}
		if ev.UserID == "" {
			return fmt.Errorf("malformed %s: empty user id", orderdom.EventTypeCartCleared)
		}
		if err := svc.Clear(ctx, ev.UserID); err != nil {
			return err
		}
		log.Info("cart cleared", "user_id", ev.UserID)
		return nil
	})
}
