package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/storefront/internal/comment/domain"
)

var ErrEmptyBody = errors.New("comment body required")

type Service struct {
	repo  CommentRepository
	users UserDirectory
}

func NewService(repo CommentRepository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

func (s *Service) Add(ctx context.Context, productID, userID, body string) (domain.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return domain.Comment{}, ErrEmptyBody
	}
	c := domain.Comment{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    userID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Add(ctx, c); err != nil {
		return domain.Comment{}, err
	}
	return c, nil
}

// ListWithAuthors resolves author names in one batch lookup. A user the
// directory no longer knows keeps an empty name rather than failing the
// listing.
func (s *Service) ListWithAuthors(ctx context.Context, productID string) ([]domain.CommentView, error) {
	comments, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return []domain.CommentView{}, nil
	}

	seen := make(map[string]struct{}, len(comments))
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.UserID]; ok {
			continue
		}
		seen[c.UserID] = struct{}{}
		ids = append(ids, c.UserID)
	}

	users, err := s.users.Lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.UserID] = u.DisplayName
	}

	views := make([]domain.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, domain.CommentView{Comment: c, AuthorName: names[c.UserID]})
	}
	return views, nil
}
