package application

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmehra2102/storefront/internal/user/domain"
)

var ErrNotFound = errors.New("user not found")

type Service struct {
	repo UserRepository
}

func NewService(repo UserRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Register(ctx context.Context, u domain.User, traceparent string) error {
	payload, err := json.Marshal(domain.AccountCreated{
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
	})
	if err != nil {
		return err
	}
	return s.repo.SaveWithOutbox(ctx, u, domain.EventTypeAccountCreated, payload, traceparent)
}

func (s *Service) Get(ctx context.Context, id string) (domain.User, error) {
	return s.repo.Get(ctx, id)
}

// Lookup answers the batch user query. Missing ids are omitted, never an
// error; an all-unknown batch answers with an empty list.
func (s *Service) Lookup(ctx context.Context, ids []string) ([]domain.UserSummary, error) {
	if len(ids) == 0 {
		return []domain.UserSummary{}, nil
	}
	return s.repo.Summaries(ctx, ids)
}
