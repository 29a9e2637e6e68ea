package store

import (
	"context"
	"sync"

	"storefront/internal/models"
)

// MemoryStore holds the collections in process memory for the lifetime of
// the process. Mutations are permanent; there is no rollback.
type MemoryStore struct {
	mu         sync.RWMutex
	products   []models.Product
	categories []models.Category
	orders     []models.Order
	users      []models.User
}

// NewMemoryStore creates a store populated from seed. A nil seed yields an empty store.
func NewMemoryStore(seed *Seed) *MemoryStore {
	s := &MemoryStore{}
	if seed != nil {
		s.products = models.CloneProducts(seed.Products)
		s.categories = models.CloneCategories(seed.Categories)
		s.orders = models.CloneOrders(seed.Orders)
		s.users = models.CloneUsers(seed.Users)
	}
	return s
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nonNil(models.CloneProducts(s.products)), nil
}

func (s *MemoryStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (s *MemoryStore) MaxProductID(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var maxID int64
	for _, p := range s.products {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID, nil
}

func (s *MemoryStore) CreateProduct(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, *product)
	return nil
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == product.ID {
			s.products[i] = *product
			return nil
		}
	}
	return models.ErrProductNotFound
}

func (s *MemoryStore) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i:i], s.products[i+1:]...)
			return nil
		}
	}
	return models.ErrProductNotFound
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nonNil(models.CloneCategories(s.categories)), nil
}

func (s *MemoryStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nonNil(models.CloneOrders(s.orders)), nil
}

func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].Status = status
			order := s.orders[i].Clone()
			return &order, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nonNil(models.CloneUsers(s.users)), nil
}

func (s *MemoryStore) FindUserByRole(ctx context.Context, role models.Role) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Role == role {
			user := u
			return &user, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
