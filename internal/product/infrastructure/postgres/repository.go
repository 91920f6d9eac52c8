package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront/internal/product/application"
	"github.com/dmehra2102/storefront/internal/product/domain"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) SaveWithOutbox(ctx context.Context, p domain.Product, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO products (id, name, description, price_cents, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET name=$2, description=$3, price_cents=$4, updated_at=$7`,
		p.ID, p.Name, p.Description, p.PriceCents, p.Quantity, p.CreatedAt, time.Now().UTC())
	if err != nil {
		return err
	}

	if err := outbox.Enqueue(ctx, tx, "product", p.ID, eventType, payload, traceparent); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) DeleteWithOutbox(ctx context.Context, id string, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE id=$1`, id); err != nil {
		return err
	}
	if err := outbox.Enqueue(ctx, tx, "product", id, eventType, payload, traceparent); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, price_cents, quantity, created_at, updated_at
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *Repository) Quantity(ctx context.Context, id string) (int, error) {
	var qty int
	err := r.pool.QueryRow(ctx, `SELECT quantity FROM products WHERE id=$1`, id).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return qty, err
}

func (r *Repository) Price(ctx context.Context, id string) (int64, error) {
	var price int64
	err := r.pool.QueryRow(ctx, `SELECT price_cents FROM products WHERE id=$1`, id).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return price, err
}

// AdjustQuantity clamps at zero in the statement itself, so concurrent
// deltas serialize on the row without a read-modify-write race.
func (r *Repository) AdjustQuantity(ctx context.Context, id string, delta int) error {
	ct, err := r.pool.Exec(ctx, `UPDATE products
		SET quantity = GREATEST(0, quantity + $2), updated_at = now()
		WHERE id=$1`, id, delta)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		r.log.Info("stock adjustment for unknown product skipped", "product_id", id)
	}
	return nil
}
