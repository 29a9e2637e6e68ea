package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type orderRow struct {
	ID           string          `db:"id"`
	UserID       string          `db:"user_id"`
	Total        decimal.Decimal `db:"total"`
	Status       string          `db:"status"`
	CreatedAt    time.Time       `db:"created_at"`
	CustomerName string          `db:"customer_name"`
}

type orderItemRow struct {
	OrderID  string `db:"order_id"`
	Position int    `db:"position"`
	Quantity int    `db:"quantity"`
	Product  []byte `db:"product"`
}

// ListCategories retrieves all categories
func (s *PostgresStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.SelectContext(ctx, &categories, "SELECT id, name FROM categories ORDER BY id")
	return categories, err
}

// ListOrders retrieves all orders with their line items
func (s *PostgresStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM orders ORDER BY id"); err != nil {
		return nil, err
	}

	var items []orderItemRow
	if err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items ORDER BY order_id, position"); err != nil {
		return nil, err
	}

	byOrder := make(map[string][]models.CartItem, len(rows))
	for _, it := range items {
		ci, err := it.cartItem()
		if err != nil {
			return nil, err
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], ci)
	}

	orders := make([]models.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, r.order(byOrder[r.ID]))
	}
	return orders, nil
}

// UpdateOrderStatus updates order status and returns the updated order
func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row,
		"UPDATE orders SET status = $1 WHERE id = $2 RETURNING *",
		string(status), orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}

	var items []orderItemRow
	if err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY position", orderID); err != nil {
		return nil, err
	}

	lineItems := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		ci, err := it.cartItem()
		if err != nil {
			return nil, err
		}
		lineItems = append(lineItems, ci)
	}

	order := row.order(lineItems)
	return &order, nil
}

// ListUsers retrieves all users
func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY id")
	return users, err
}

// FindUserByRole retrieves the first user holding a role
func (s *PostgresStore) FindUserByRole(ctx context.Context, role models.Role) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		"SELECT * FROM users WHERE role = $1 ORDER BY id LIMIT 1", string(role))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: role %s", models.ErrUserNotFound, role)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func insertOrder(ctx context.Context, db sqlx.ExtContext, order *models.Order) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, total, status, created_at, customer_name)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		order.ID, order.UserID, order.Total, string(order.Status), order.CreatedAt, order.CustomerName)
	if err != nil {
		return err
	}

	for i, item := range order.Items {
		product, err := json.Marshal(item.Product)
		if err != nil {
			return fmt.Errorf("failed to marshal product snapshot: %w", err)
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO order_items (order_id, position, quantity, product) VALUES ($1, $2, $3, $4)",
			order.ID, i, item.Quantity, product); err != nil {
			return err
		}
	}
	return nil
}

func (r orderRow) order(items []models.CartItem) models.Order {
	if items == nil {
		items = []models.CartItem{}
	}
	return models.Order{
		ID:           r.ID,
		UserID:       r.UserID,
		Items:        items,
		Total:        r.Total,
		Status:       models.OrderStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		CustomerName: r.CustomerName,
	}
}

func (r orderItemRow) cartItem() (models.CartItem, error) {
	var product models.Product
	if err := json.Unmarshal(r.Product, &product); err != nil {
		return models.CartItem{}, fmt.Errorf("failed to unmarshal product snapshot for order %s: %w", r.OrderID, err)
	}
	return models.CartItem{Product: product, Quantity: r.Quantity}, nil
}
