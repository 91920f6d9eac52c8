package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront/internal/cart/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// EnsureCart relies on the unique index on carts.user_id: a concurrent
// duplicate insert resolves to DO NOTHING instead of a second cart.
func (r *Repository) EnsureCart(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO carts (id, user_id, created_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id) DO NOTHING`,
		uuid.NewString(), userID, time.Now().UTC())
	return err
}

func (r *Repository) Get(ctx context.Context, userID string) (domain.Cart, error) {
	var c domain.Cart
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, created_at FROM carts WHERE user_id=$1`, userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{UserID: userID}, nil
	}
	if err != nil {
		return domain.Cart{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT product_id, quantity FROM cart_items WHERE cart_id=$1`, c.ID)
	if err != nil {
		return domain.Cart{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return domain.Cart{}, err
		}
		c.Items = append(c.Items, item)
	}
	return c, rows.Err()
}

func (r *Repository) ItemQuantity(ctx context.Context, userID, productID string) (int, error) {
	var qty int
	err := r.pool.QueryRow(ctx, `SELECT ci.quantity FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE c.user_id=$1 AND ci.product_id=$2`, userID, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return qty, err
}

// AddItemQuantity sums in a single statement so two concurrent adds both
// land instead of one overwriting the other.
func (r *Repository) AddItemQuantity(ctx context.Context, userID, productID string, quantity int) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO cart_items (cart_id, product_id, quantity)
		SELECT c.id, $2, $3 FROM carts c WHERE c.user_id=$1
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		userID, productID, quantity)
	return err
}

func (r *Repository) ApplyItemDelta(ctx context.Context, userID, productID string, delta int) (int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var qty int
	err = tx.QueryRow(ctx, `INSERT INTO cart_items (cart_id, product_id, quantity)
		SELECT c.id, $2, $3 FROM carts c WHERE c.user_id=$1
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING quantity`,
		userID, productID, delta).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		// No cart for the user: nothing to change.
		return 0, tx.Commit(ctx)
	}
	if err != nil {
		return 0, err
	}

	if qty <= 0 {
		_, err = tx.Exec(ctx, `DELETE FROM cart_items ci USING carts c
			WHERE ci.cart_id = c.id AND c.user_id=$1 AND ci.product_id=$2`,
			userID, productID)
		if err != nil {
			return 0, err
		}
		qty = 0
	}
	return qty, tx.Commit(ctx)
}

func (r *Repository) RemoveItem(ctx context.Context, userID, productID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items ci USING carts c
		WHERE ci.cart_id = c.id AND c.user_id=$1 AND ci.product_id=$2`,
		userID, productID)
	return err
}

func (r *Repository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items ci USING carts c
		WHERE ci.cart_id = c.id AND c.user_id=$1`, userID)
	return err
}
