package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("Integration test - requires docker")
	}

	ctx := context.Background()
	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "app",
				"POSTGRES_PASSWORD": "secret",
				"POSTGRES_DB":       "storefront",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	}

	container, err := testcontainers.GenericContainer(ctx, req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://app:secret@%s:%s/storefront?sslmode=disable", host, port.Port())
	db, err := NewPostgresStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	seeded, err := db.SeedIfEmpty(ctx, DefaultSeed())
	require.NoError(t, err)
	require.True(t, seeded)

	return db
}

func TestPostgresStore(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	t.Run("seed is idempotent", func(t *testing.T) {
		seeded, err := db.SeedIfEmpty(ctx, DefaultSeed())
		require.NoError(t, err)
		assert.False(t, seeded)
	})

	t.Run("collections", func(t *testing.T) {
		products, err := db.ListProducts(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 8)
		assert.True(t, decimal.NewFromInt(1200).Equal(products[0].Price))

		categories, err := db.ListCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, categories, 4)

		users, err := db.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 3)

		orders, err := db.ListOrders(ctx)
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, "ORD-002", orders[1].ID)
		assert.Len(t, orders[1].Items, 2)
		assert.Equal(t, "Nebula T-Shirt", orders[1].Items[0].Product.Name)
	})

	t.Run("product lifecycle", func(t *testing.T) {
		maxID, err := db.MaxProductID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(8), maxID)

		p := models.Product{ID: 100, Name: "Desk Lamp", Price: decimal.RequireFromString("39.99"), Stock: 2, CategoryID: 4}
		require.NoError(t, db.CreateProduct(ctx, &p))

		got, err := db.GetProduct(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, "Desk Lamp", got.Name)

		p.Stock = 0
		require.NoError(t, db.UpdateProduct(ctx, &p))
		got, err = db.GetProduct(ctx, 100)
		require.NoError(t, err)
		assert.False(t, got.InStock())

		require.NoError(t, db.DeleteProduct(ctx, 100))
		_, err = db.GetProduct(ctx, 100)
		assert.ErrorIs(t, err, models.ErrProductNotFound)
		assert.ErrorIs(t, db.DeleteProduct(ctx, 100), models.ErrProductNotFound)

		ghost := models.Product{ID: 555, Name: "x", CategoryID: 1}
		assert.ErrorIs(t, db.UpdateProduct(ctx, &ghost), models.ErrProductNotFound)
	})

	t.Run("order status", func(t *testing.T) {
		order, err := db.UpdateOrderStatus(ctx, "ORD-001", models.OrderStatusShipped)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusShipped, order.Status)
		assert.True(t, decimal.NewFromInt(1200).Equal(order.Total))
		assert.Len(t, order.Items, 1)

		_, err = db.UpdateOrderStatus(ctx, "ORD-999", models.OrderStatusShipped)
		assert.ErrorIs(t, err, models.ErrOrderNotFound)
	})

	t.Run("find user by role", func(t *testing.T) {
		user, err := db.FindUserByRole(ctx, models.RoleCustomer)
		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)
	})
}
