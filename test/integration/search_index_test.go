package integration

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/storefront/internal/search/domain"
	searchredis "github.com/dmehra2102/storefront/internal/search/infrastructure/redis"
)

func TestSearchIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("container test")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	if err != nil {
		t.Fatalf("setup containers: %v", err)
	}
	t.Cleanup(func() { env.Teardown(ctx) })

	opts, err := redis.ParseURL(env.RedisAddr)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	index := searchredis.NewIndex(rdb)

	t.Run("upsert then read back", func(t *testing.T) {
		doc := domain.ProductDocument{ProductID: "p1", Name: "Lamp", Description: "desk lamp", PriceCents: 1999}
		if err := index.Upsert(ctx, doc); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		got, ok, err := index.Get(ctx, "p1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !ok || got != doc {
			t.Fatalf("doc = %+v ok=%v, want %+v", got, ok, doc)
		}
	})

	t.Run("upsert overwrites", func(t *testing.T) {
		if err := index.Upsert(ctx, domain.ProductDocument{ProductID: "p1", Name: "Lamp v2", Description: "desk lamp", PriceCents: 2499}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		got, ok, err := index.Get(ctx, "p1")
		if err != nil || !ok {
			t.Fatalf("get: ok=%v err=%v", ok, err)
		}
		if got.Name != "Lamp v2" || got.PriceCents != 2499 {
			t.Fatalf("doc = %+v, want last write to win", got)
		}
	})

	t.Run("delete wins over stale update", func(t *testing.T) {
		if err := index.Upsert(ctx, domain.ProductDocument{ProductID: "p2", Name: "Chair"}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if err := index.Delete(ctx, "p2"); err != nil {
			t.Fatalf("delete: %v", err)
		}

		// An update reordered behind the delete hits the tombstone and is
		// dropped instead of resurrecting the document.
		if err := index.Upsert(ctx, domain.ProductDocument{ProductID: "p2", Name: "Chair stale"}); err != nil {
			t.Fatalf("stale upsert: %v", err)
		}
		_, ok, err := index.Get(ctx, "p2")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if ok {
			t.Fatal("deleted document was resurrected by a stale update")
		}
	})

	t.Run("missing document reads as absent", func(t *testing.T) {
		_, ok, err := index.Get(ctx, "never-indexed")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if ok {
			t.Fatal("unknown product should not resolve to a document")
		}
	})
}
