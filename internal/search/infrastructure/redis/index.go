package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/storefront/internal/search/domain"
)

const tombstoneTTL = 24 * time.Hour

// Index stores one hash per product plus a member set for enumeration.
// Deletes leave a TTL-bounded tombstone; an update arriving after the
// delete (stale, out of order) sees the tombstone and is dropped instead of
// resurrecting the document.
type Index struct {
	rdb *redis.Client
}

func NewIndex(rdb *redis.Client) *Index {
	return &Index{rdb: rdb}
}

func docKey(productID string) string       { return "search:product:" + productID }
func tombstoneKey(productID string) string { return "search:tombstone:" + productID }

const membersKey = "search:products"

func (i *Index) Upsert(ctx context.Context, doc domain.ProductDocument) error {
	dead, err := i.rdb.Exists(ctx, tombstoneKey(doc.ProductID)).Result()
	if err != nil {
		return err
	}
	if dead > 0 {
		return nil
	}

	pipe := i.rdb.TxPipeline()
	pipe.HSet(ctx, docKey(doc.ProductID), map[string]any{
		"name":        doc.Name,
		"description": doc.Description,
		"price_cents": strconv.FormatInt(doc.PriceCents, 10),
	})
	pipe.SAdd(ctx, membersKey, doc.ProductID)
	_, err = pipe.Exec(ctx)
	return err
}

func (i *Index) Delete(ctx context.Context, productID string) error {
	pipe := i.rdb.TxPipeline()
	pipe.Del(ctx, docKey(productID))
	pipe.SRem(ctx, membersKey, productID)
	pipe.Set(ctx, tombstoneKey(productID), "1", tombstoneTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Get reads a projected document back; ok is false when absent.
func (i *Index) Get(ctx context.Context, productID string) (domain.ProductDocument, bool, error) {
	fields, err := i.rdb.HGetAll(ctx, docKey(productID)).Result()
	if err != nil {
		return domain.ProductDocument{}, false, err
	}
	if len(fields) == 0 {
		return domain.ProductDocument{}, false, nil
	}
	price, _ := strconv.ParseInt(fields["price_cents"], 10, 64)
	return domain.ProductDocument{
		ProductID:   productID,
		Name:        fields["name"],
		Description: fields["description"],
		PriceCents:  price,
	}, true, nil
}
