package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront/internal/comment/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Add(ctx context.Context, c domain.Comment) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO comments (id, product_id, user_id, body, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.ProductID, c.UserID, c.Body, c.CreatedAt)
	return err
}

func (r *Repository) ListByProduct(ctx context.Context, productID string) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, user_id, body, created_at
		FROM comments WHERE product_id=$1 ORDER BY created_at`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.ProductID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
