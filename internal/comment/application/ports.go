package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/comment/domain"
	userdom "github.com/dmehra2102/storefront/internal/user/domain"
)

type CommentRepository interface {
	Add(ctx context.Context, c domain.Comment) error
	ListByProduct(ctx context.Context, productID string) ([]domain.Comment, error)
}

// UserDirectory resolves display names over the bus; ids it cannot resolve
// are absent from the result.
type UserDirectory interface {
	Lookup(ctx context.Context, ids []string) ([]userdom.UserSummary, error)
}
