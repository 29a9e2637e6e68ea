package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...Option) (*DataService, *store.MemoryStore) {
	t.Helper()
	repo := store.NewMemoryStore(store.DefaultSeed())
	opts = append([]Option{WithLatency(0)}, opts...)
	return NewDataService(repo, opts...), repo
}

func lampInput() models.ProductInput {
	return models.ProductInput{
		Name:       "Desk Lamp",
		Price:      decimal.RequireFromString("39.99"),
		Stock:      12,
		ImageURL:   "https://picsum.photos/seed/lamp/400/400",
		CategoryID: 4,
	}
}

type recordingPublisher struct {
	events []models.BaseEvent
	fail   error
}

func (p *recordingPublisher) PublishProductCreated(ctx context.Context, e *models.ProductCreatedEvent) error {
	p.events = append(p.events, e.BaseEvent)
	return p.fail
}

func (p *recordingPublisher) PublishProductUpdated(ctx context.Context, e *models.ProductUpdatedEvent) error {
	p.events = append(p.events, e.BaseEvent)
	return p.fail
}

func (p *recordingPublisher) PublishProductDeleted(ctx context.Context, e *models.ProductDeletedEvent) error {
	p.events = append(p.events, e.BaseEvent)
	return p.fail
}

func (p *recordingPublisher) PublishOrderStatusChanged(ctx context.Context, e *models.OrderStatusChangedEvent) error {
	p.events = append(p.events, e.BaseEvent)
	return p.fail
}

func TestFetchCollections(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	products, err := svc.FetchProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 8)

	categories, err := svc.FetchCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 4)

	orders, err := svc.FetchOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	users, err := svc.FetchUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestFetchProduct(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	products, err := svc.FetchProducts(ctx)
	require.NoError(t, err)

	for _, p := range products {
		got, err := svc.FetchProduct(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, p, *got)
	}

	t.Run("unknown id is absent, not an error", func(t *testing.T) {
		got, err := svc.FetchProduct(ctx, 424242)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestFetchReturnsCopies(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	orders, err := svc.FetchOrders(ctx)
	require.NoError(t, err)
	orders[0].Status = models.OrderStatusCancelled
	orders[0].Items[0].Quantity = 99

	again, err := svc.FetchOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, again[0].Status)
	assert.Equal(t, 1, again[0].Items[0].Quantity)
}

func TestCreateProduct(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, lampInput())
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", created.Name)

	products, err := svc.FetchProducts(ctx)
	require.NoError(t, err)

	count := 0
	for _, p := range products {
		if p.ID == created.ID {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, created.ID, products[len(products)-1].ID, "new products are appended")

	t.Run("rejects missing name", func(t *testing.T) {
		in := lampInput()
		in.Name = ""
		_, err := svc.CreateProduct(ctx, in)
		assert.ErrorIs(t, err, models.ErrInvalidProduct)
	})
}

func TestCreateProductIDsNeverCollide(t *testing.T) {
	frozen := time.UnixMilli(5)
	svc, _ := setup(t, WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	seen := map[int64]bool{}
	existing, err := svc.FetchProducts(ctx)
	require.NoError(t, err)
	for _, p := range existing {
		seen[p.ID] = true
	}

	for i := 0; i < 5; i++ {
		p, err := svc.CreateProduct(ctx, lampInput())
		require.NoError(t, err)
		assert.False(t, seen[p.ID], "id %d reused", p.ID)
		seen[p.ID] = true
	}
}

func TestCreateProductIDFollowsClock(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	svc, _ := setup(t, WithClock(func() time.Time { return now }))

	p, err := svc.CreateProduct(context.Background(), lampInput())
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), p.ID)
}

func TestUpdateProduct(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	product, err := svc.FetchProduct(ctx, 2)
	require.NoError(t, err)
	product.Price = decimal.NewFromInt(50)

	updated, err := svc.UpdateProduct(ctx, *product)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(updated.Price))

	stored, err := svc.FetchProduct(ctx, 2)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(stored.Price))

	t.Run("unknown id is not found", func(t *testing.T) {
		ghost := *product
		ghost.ID = 999
		_, err := svc.UpdateProduct(ctx, ghost)
		assert.ErrorIs(t, err, models.ErrProductNotFound)
	})
}

func TestDeleteProduct(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.DeleteProduct(ctx, 3))

	got, err := svc.FetchProduct(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, svc.DeleteProduct(ctx, 3), models.ErrProductNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	before, err := svc.FetchOrders(ctx)
	require.NoError(t, err)

	updated, err := svc.UpdateOrderStatus(ctx, "ORD-001", models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	after, err := svc.FetchOrders(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before))

	expected := before[0]
	expected.Status = models.OrderStatusShipped
	assert.Equal(t, expected, after[0])
	assert.Equal(t, before[1:], after[1:])

	t.Run("unknown order", func(t *testing.T) {
		_, err := svc.UpdateOrderStatus(ctx, "ORD-999", models.OrderStatusShipped)
		assert.ErrorIs(t, err, models.ErrOrderNotFound)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := svc.UpdateOrderStatus(ctx, "ORD-002", models.OrderStatus("Lost"))
		assert.ErrorIs(t, err, models.ErrInvalidStatus)
	})
}

func TestLogin(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	admin, err := svc.Login(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	customer, err := svc.Login(ctx, models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, "user-1", customer.ID)

	t.Run("no user with role", func(t *testing.T) {
		empty := NewDataService(store.NewMemoryStore(&store.Seed{
			Users: []models.User{{ID: "u", Role: models.RoleCustomer}},
		}), WithLatency(0))
		_, err := empty.Login(ctx, models.RoleAdmin)
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

func TestLatencyIsSimulated(t *testing.T) {
	svc, _ := setup(t, WithLatency(40*time.Millisecond))

	start := time.Now()
	_, err := svc.FetchCategories(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestCancelledCallKeepsEffect(t *testing.T) {
	svc, repo := setup(t, WithLatency(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.CreateProduct(ctx, lampInput())
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	products, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 9)
}

func TestFaultInjection(t *testing.T) {
	boom := errors.New("injected")
	svc, repo := setup(t, WithFaults(func(op string) error {
		if op == "FetchOrders" || op == "DeleteProduct" {
			return boom
		}
		return nil
	}))
	ctx := context.Background()

	_, err := svc.FetchOrders(ctx)
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, svc.DeleteProduct(ctx, 1), boom)
	_, err = repo.GetProduct(ctx, 1)
	assert.NoError(t, err, "a faulted mutation must not apply")

	_, err = svc.FetchUsers(ctx)
	assert.NoError(t, err)
}

func TestEventsArePublished(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := setup(t, WithEvents(pub, "instance-1"))
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, lampInput())
	require.NoError(t, err)
	_, err = svc.UpdateProduct(ctx, *created)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	_, err = svc.UpdateOrderStatus(ctx, "ORD-003", models.OrderStatusShipped)
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(ctx, "ORD-999", models.OrderStatusShipped)
	require.Error(t, err)

	require.Len(t, pub.events, 4)
	types := make([]string, 0, len(pub.events))
	for _, e := range pub.events {
		types = append(types, e.EventType)
		assert.Equal(t, "instance-1", e.Source)
		assert.NotEmpty(t, e.EventID)
	}
	assert.Equal(t, []string{
		models.EventTypeProductCreated,
		models.EventTypeProductUpdated,
		models.EventTypeProductDeleted,
		models.EventTypeOrderStatusChanged,
	}, types)
}

func TestPublishFailureDoesNotFailCall(t *testing.T) {
	pub := &recordingPublisher{fail: errors.New("broker down")}
	svc, _ := setup(t, WithEvents(pub, "x"))

	_, err := svc.CreateProduct(context.Background(), lampInput())
	assert.NoError(t, err)
}
