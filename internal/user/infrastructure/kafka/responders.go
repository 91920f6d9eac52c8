package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/user/domain"
	"github.com/dmehra2102/storefront/pkg/bus"
)

type UserQueries interface {
	Lookup(ctx context.Context, ids []string) ([]domain.UserSummary, error)
}

func RegisterResponders(log *slog.Logger, responder *bus.Responder, svc UserQueries) {
	responder.Handle(domain.QueryTypeUserLookup, func(ctx context.Context, payload []byte) ([]byte, error) {
		var req domain.UserLookupRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("malformed %s: %w", domain.QueryTypeUserLookup, err)
		}
		users, err := svc.Lookup(ctx, req.UserIDs)
		if err != nil {
			return nil, err
		}
		return json.Marshal(domain.UserLookupResponse{Users: users})
	})
}
