package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmehra2102/storefront/internal/product/domain"
	"github.com/dmehra2102/storefront/pkg/bus"
)

type PriceLookup struct {
	requester *bus.Requester
	topic     string
}

func NewPriceLookup(requester *bus.Requester, topic string) *PriceLookup {
	return &PriceLookup{requester: requester, topic: topic}
}

func (p *PriceLookup) PriceCents(ctx context.Context, productID string) (int64, error) {
	payload, err := json.Marshal(domain.PriceRequest{ProductID: productID})
	if err != nil {
		return 0, err
	}
	resp, err := p.requester.Request(ctx, p.topic, domain.QueryTypePrice, productID, payload)
	if err != nil {
		return 0, err
	}
	var out domain.PriceResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return 0, fmt.Errorf("decode price response: %w", err)
	}
	return out.PriceCents, nil
}
