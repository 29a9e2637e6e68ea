package store

import (
	"context"
	"time"

	"storefront/internal/models"
)

// Repository is the storage behind the mock data service. Implementations
// return copies; callers may mutate what they get back.
type Repository interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	// GetProduct returns models.ErrProductNotFound for an unknown id.
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	MaxProductID(ctx context.Context) (int64, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]models.Category, error)

	ListOrders(ctx context.Context) ([]models.Order, error)
	// UpdateOrderStatus returns models.ErrOrderNotFound for an unknown id.
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error)

	ListUsers(ctx context.Context) ([]models.User, error)
	// FindUserByRole returns the first user with the role, or models.ErrUserNotFound.
	FindUserByRole(ctx context.Context, role models.Role) (*models.User, error)
}

// Cache stores JSON snapshots of whole collections.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
