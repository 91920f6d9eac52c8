package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	productdom "github.com/dmehra2102/storefront/internal/product/domain"
	"github.com/dmehra2102/storefront/internal/search/domain"
	"github.com/dmehra2102/storefront/pkg/bus"
)

type Index interface {
	// Upsert is a last-write-wins overwrite keyed by product id. It must
	// not resurrect a deleted document.
	Upsert(ctx context.Context, doc domain.ProductDocument) error
	// Delete removes the document unconditionally.
	Delete(ctx context.Context, productID string) error
}

// Projector keeps the search index eventually consistent with product
// lifecycle events. Event order across types is not guaranteed for the same
// product, so every event is applied as an idempotent overwrite or an
// unconditional removal.
type Projector struct {
	log   *slog.Logger
	index Index
}

func NewProjector(log *slog.Logger, index Index) *Projector {
	return &Projector{log: log, index: index}
}

func (p *Projector) Register(productEvents *bus.Consumer) {
	productEvents.Handle(productdom.EventTypeProductCreated, p.upsert(productdom.EventTypeProductCreated))
	productEvents.Handle(productdom.EventTypeProductUpdated, p.upsert(productdom.EventTypeProductUpdated))
	productEvents.Handle(productdom.EventTypeProductDeleted, p.delete)
}

func (p *Projector) upsert(eventType string) bus.EventHandler {
	return func(ctx context.Context, payload []byte) error {
		// Created and Updated share the projected field set.
		var ev productdom.ProductUpdated
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("malformed %s: %w", eventType, err)
		}
		if ev.ProductID == "" {
			return fmt.Errorf("malformed %s: empty product id", eventType)
		}
		doc := domain.ProductDocument{
			ProductID:   ev.ProductID,
			Name:        ev.Name,
			Description: ev.Description,
			PriceCents:  ev.PriceCents,
		}
		if err := p.index.Upsert(ctx, doc); err != nil {
			return err
		}
		p.log.Info("search document upserted", "product_id", ev.ProductID)
		return nil
	}
}

func (p *Projector) delete(ctx context.Context, payload []byte) error {
	var ev productdom.ProductDeleted
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("malformed %s: %w", productdom.EventTypeProductDeleted, err)
	}
	if ev.ProductID == "" {
		return fmt.Errorf("malformed %s: empty product id", productdom.EventTypeProductDeleted)
	}
	if err := p.index.Delete(ctx, ev.ProductID); err != nil {
		return err
	}
	p.log.Info("search document deleted", "product_id", ev.ProductID)
	return nil
}
