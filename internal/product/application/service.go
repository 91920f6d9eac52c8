package application

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmehra2102/storefront/internal/product/domain"
)

var ErrNotFound = errors.New("product not found")

type Service struct {
	repo ProductRepository
}

func NewService(repo ProductRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p domain.Product, traceparent string) error {
	payload, err := json.Marshal(domain.ProductCreated{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
	})
	if err != nil {
		return err
	}
	return s.repo.SaveWithOutbox(ctx, p, domain.EventTypeProductCreated, payload, traceparent)
}

func (s *Service) Update(ctx context.Context, p domain.Product, traceparent string) error {
	payload, err := json.Marshal(domain.ProductUpdated{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
	})
	if err != nil {
		return err
	}
	return s.repo.SaveWithOutbox(ctx, p, domain.EventTypeProductUpdated, payload, traceparent)
}

func (s *Service) Delete(ctx context.Context, id, traceparent string) error {
	payload, err := json.Marshal(domain.ProductDeleted{ProductID: id})
	if err != nil {
		return err
	}
	return s.repo.DeleteWithOutbox(ctx, id, domain.EventTypeProductDeleted, payload, traceparent)
}

func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.repo.Get(ctx, id)
}

// AvailableQuantity answers the stock query; unknown products have zero
// availability, which the caller treats as "not found is not a fault".
func (s *Service) AvailableQuantity(ctx context.Context, productID string) (int, error) {
	return s.repo.Quantity(ctx, productID)
}

func (s *Service) PriceCents(ctx context.Context, productID string) (int64, error) {
	return s.repo.Price(ctx, productID)
}

// AdjustStock applies a stock delta to the replica, clamped at zero.
func (s *Service) AdjustStock(ctx context.Context, productID string, delta int) error {
	return s.repo.AdjustQuantity(ctx, productID, delta)
}
