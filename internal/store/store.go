package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// PostgresStore is a Repository backed by PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new database store and ensures the schema exists
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newPostgresStore(db)
}

// newPostgresStore takes ownership of db and closes it if setup fails
func newPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SeedIfEmpty loads seed data when the products table has no rows
func (s *PostgresStore) SeedIfEmpty(ctx context.Context, seed *Seed) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM products"); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	for _, c := range seed.Categories {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO categories (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING",
			c.ID, c.Name); err != nil {
			return false, fmt.Errorf("failed to seed category %d: %w", c.ID, err)
		}
	}
	for i := range seed.Products {
		if err := insertProduct(ctx, tx, &seed.Products[i]); err != nil {
			return false, fmt.Errorf("failed to seed product %d: %w", seed.Products[i].ID, err)
		}
	}
	for _, u := range seed.Users {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO users (id, name, email, role) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING",
			u.ID, u.Name, u.Email, u.Role); err != nil {
			return false, fmt.Errorf("failed to seed user %s: %w", u.ID, err)
		}
	}
	for i := range seed.Orders {
		if err := insertOrder(ctx, tx, &seed.Orders[i]); err != nil {
			return false, fmt.Errorf("failed to seed order %s: %w", seed.Orders[i].ID, err)
		}
	}

	return true, tx.Commit()
}

// ListProducts retrieves all products
func (s *PostgresStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY id")
	return products, err
}

// GetProduct retrieves a product by ID
func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", models.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// MaxProductID returns the largest product id, or 0 for an empty catalog
func (s *PostgresStore) MaxProductID(ctx context.Context) (int64, error) {
	var maxID int64
	err := s.db.GetContext(ctx, &maxID, "SELECT COALESCE(MAX(id), 0) FROM products")
	return maxID, err
}

// CreateProduct inserts a product with a caller-assigned id
func (s *PostgresStore) CreateProduct(ctx context.Context, product *models.Product) error {
	return insertProduct(ctx, s.db, product)
}

// UpdateProduct replaces all fields of an existing product
func (s *PostgresStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE products
		SET name = :name, description = :description, price = :price, stock = :stock,
			image_url = :image_url, category_id = :category_id
		WHERE id = :id`, product)
	if err != nil {
		return err
	}
	return expectRow(res, fmt.Errorf("%w: %d", models.ErrProductNotFound, product.ID))
}

// DeleteProduct removes a product by ID
func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectRow(res, fmt.Errorf("%w: %d", models.ErrProductNotFound, id))
}

func insertProduct(ctx context.Context, db sqlx.ExtContext, product *models.Product) error {
	_, err := sqlx.NamedExecContext(ctx, db, `
		INSERT INTO products (id, name, description, price, stock, image_url, category_id)
		VALUES (:id, :name, :description, :price, :stock, :image_url, :category_id)`, product)
	return err
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
