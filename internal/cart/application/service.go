package application

import (
	"context"
	"errors"

	"github.com/dmehra2102/storefront/internal/cart/domain"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidDelta    = errors.New("delta must be +1 or -1")
)

// Service is the cart mutation engine. The stock check is an admission
// hint: availability is queried over the bus before committing, but stock is
// only authoritatively decremented by the product service, so a small race
// window between check and debit is accepted.
type Service struct {
	repo  CartRepository
	stock StockChecker
}

func NewService(repo CartRepository, stock StockChecker) *Service {
	return &Service{repo: repo, stock: stock}
}

func (s *Service) Get(ctx context.Context, userID string) (domain.Cart, error) {
	return s.repo.Get(ctx, userID)
}

// EnsureCart backs both lazy creation and the account-created event.
func (s *Service) EnsureCart(ctx context.Context, userID string) error {
	return s.repo.EnsureCart(ctx, userID)
}

func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := s.repo.EnsureCart(ctx, userID); err != nil {
		return err
	}

	current, err := s.repo.ItemQuantity(ctx, userID, productID)
	if err != nil {
		return err
	}
	if err := s.admit(ctx, productID, current+quantity); err != nil {
		return err
	}
	return s.repo.AddItemQuantity(ctx, userID, productID, quantity)
}

func (s *Service) ChangeQuantity(ctx context.Context, userID, productID string, delta int) error {
	if delta != 1 && delta != -1 {
		return ErrInvalidDelta
	}
	if delta > 0 {
		current, err := s.repo.ItemQuantity(ctx, userID, productID)
		if err != nil {
			return err
		}
		if err := s.admit(ctx, productID, current+delta); err != nil {
			return err
		}
	}
	_, err := s.repo.ApplyItemDelta(ctx, userID, productID, delta)
	return err
}

// RemoveItem is idempotent: removing an absent item succeeds.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	return s.repo.RemoveItem(ctx, userID, productID)
}

// Clear is the single implementation behind both the HTTP clear endpoint
// and the cart-cleared event consumer.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}

// admit checks availability against the requested total. Transport failures
// (including the request timeout) pass through unchanged; they must never be
// presented as insufficient stock.
func (s *Service) admit(ctx context.Context, productID string, requested int) error {
	available, err := s.stock.AvailableQuantity(ctx, productID)
	if err != nil {
		return err
	}
	if available < requested {
		return &domain.StockInsufficientError{
			ProductID: productID,
			Requested: requested,
			Available: available,
		}
	}
	return nil
}
