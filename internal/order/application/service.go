package application

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/dmehra2102/storefront/internal/order/domain"
	productdom "github.com/dmehra2102/storefront/internal/product/domain"
)

var (
	ErrEmptyOrder      = errors.New("order has no items")
	ErrInvalidQuantity = errors.New("item quantity must be at least 1")
	ErrUnknownProduct  = errors.New("unknown product in order")
)

type Line struct {
	ProductID string
	Quantity  int
}

type Service struct {
	repo   OrderRepository
	prices PriceLookup
}

func NewService(repo OrderRepository, prices PriceLookup) *Service {
	return &Service{repo: repo, prices: prices}
}

// CreateOrder prices every line over the bus, persists the order, and
// enqueues the follow-up events: one CartCleared for the buyer and one
// negative StockAdjusted per line. The price lookup's timeout propagates to
// the caller untranslated.
func (s *Service) CreateOrder(ctx context.Context, userID string, lines []Line, traceparent string) (domain.Order, error) {
	if len(lines) == 0 {
		return domain.Order{}, ErrEmptyOrder
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return domain.Order{}, ErrInvalidQuantity
		}
		price, err := s.prices.PriceCents(ctx, line.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		if price == 0 {
			// Zero price encodes "product not found" on the wire.
			return domain.Order{}, ErrUnknownProduct
		}
		items = append(items, domain.OrderItem{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			PriceCents: price,
		})
	}

	o := domain.NewOrder(uuid.NewString(), userID, items)

	events := make([]OutboxRecord, 0, len(items)+1)
	clearPayload, err := json.Marshal(domain.CartCleared{UserID: userID})
	if err != nil {
		return domain.Order{}, err
	}
	events = append(events, OutboxRecord{
		AggregateType: "cart",
		AggregateID:   userID,
		Type:          domain.EventTypeCartCleared,
		Payload:       clearPayload,
	})
	for _, item := range items {
		payload, err := json.Marshal(productdom.StockAdjusted{
			ProductID:     item.ProductID,
			QuantityDelta: -item.Quantity,
		})
		if err != nil {
			return domain.Order{}, err
		}
		events = append(events, OutboxRecord{
			AggregateType: "product",
			AggregateID:   item.ProductID,
			Type:          productdom.EventTypeStockAdjusted,
			Payload:       payload,
		})
	}

	if err := s.repo.SaveWithOutbox(ctx, o, events, traceparent); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.Get(ctx, id)
}
