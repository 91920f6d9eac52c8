package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmehra2102/storefront/internal/product/domain"
	"github.com/dmehra2102/storefront/pkg/bus"
)

// StockChecker resolves availability through the request/reply bus instead
// of a direct call into the product service.
type StockChecker struct {
	requester *bus.Requester
	topic     string
}

func NewStockChecker(requester *bus.Requester, topic string) *StockChecker {
	return &StockChecker{requester: requester, topic: topic}
}

func (s *StockChecker) AvailableQuantity(ctx context.Context, productID string) (int, error) {
	payload, err := json.Marshal(domain.StockQuantityRequest{ProductID: productID})
	if err != nil {
		return 0, err
	}
	resp, err := s.requester.Request(ctx, s.topic, domain.QueryTypeStockQuantity, productID, payload)
	if err != nil {
		return 0, err
	}
	var out domain.StockQuantityResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return 0, fmt.Errorf("decode stock response: %w", err)
	}
	return out.AvailableQuantity, nil
}
