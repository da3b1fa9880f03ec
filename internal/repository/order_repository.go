package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/hexlibris/bookbot/internal/domain"
)

// OrderRepository defines persistence operations for completed orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindRecentByUser(ctx context.Context, userID int64, limit int) ([]*domain.Order, error)
}

type orderRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewOrderRepository creates a new SQL-backed order repository.
func NewOrderRepository(db *sql.DB, log *slog.Logger) OrderRepository {
	return &orderRepository{
		db:  db,
		log: log,
	}
}

// Create archives a completed order.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	const query = `
		INSERT INTO orders (user_id, name, address, email, book, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		order.UserID,
		order.Name,
		order.Address,
		order.Email,
		order.Book,
		order.CreatedAt,
	); err != nil {
		if r.log != nil {
			r.log.Error("failed to archive order", slog.Int64("user_id", order.UserID), slog.Any("error", err))
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// FindRecentByUser returns the user's most recent orders, newest first.
func (r *orderRepository) FindRecentByUser(ctx context.Context, userID int64, limit int) ([]*domain.Order, error) {
	const query = `
		SELECT id, user_id, name, address, email, book, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list orders", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select orders by user: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Name,
			&order.Address,
			&order.Email,
			&order.Book,
			&order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}
