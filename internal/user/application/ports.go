package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/user/domain"
)

type UserRepository interface {
	// SaveWithOutbox persists the account and enqueues AccountCreated in
	// the same transaction.
	SaveWithOutbox(ctx context.Context, u domain.User, eventType string, payload []byte, traceparent string) error
	Get(ctx context.Context, id string) (domain.User, error)
	// Summaries returns the known users among ids; unknown ids are simply
	// not present in the result.
	Summaries(ctx context.Context, ids []string) ([]domain.UserSummary, error)
}
