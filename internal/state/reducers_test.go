package state

import (
	"testing"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func product(id int64, price string) models.Product {
	return models.Product{ID: id, Name: "p", Price: decimal.RequireFromString(price), Stock: 5, CategoryID: 1}
}

func TestAddToCartSumsQuantities(t *testing.T) {
	p := product(1, "10")
	cart := AddToCart(nil, p, 2)
	cart = AddToCart(cart, p, 3)

	assert.Len(t, cart, 1)
	assert.Equal(t, 5, cart[0].Quantity)
}

func TestAddToCartAppends(t *testing.T) {
	cart := AddToCart(nil, product(1, "10"), 1)
	cart = AddToCart(cart, product(2, "5"), 1)
	cart = AddToCart(cart, product(1, "10"), 1)

	assert.Len(t, cart, 2)
	assert.Equal(t, int64(1), cart[0].Product.ID)
	assert.Equal(t, int64(2), cart[1].Product.ID)
}

func TestReducersDoNotMutateInput(t *testing.T) {
	cart := AddToCart(nil, product(1, "10"), 1)

	_ = AddToCart(cart, product(1, "10"), 4)
	_ = UpdateCartQuantity(cart, 1, 9)
	_ = RemoveFromCart(cart, 1)

	assert.Len(t, cart, 1)
	assert.Equal(t, 1, cart[0].Quantity)
}

func TestUpdateCartQuantity(t *testing.T) {
	cart := AddToCart(nil, product(1, "10"), 1)
	cart = AddToCart(cart, product(2, "5"), 1)
	cart = AddToCart(cart, product(3, "1"), 1)

	t.Run("replaces in place", func(t *testing.T) {
		updated := UpdateCartQuantity(cart, 2, 7)
		assert.Equal(t, []int64{1, 2, 3}, ids(updated))
		assert.Equal(t, 7, updated[1].Quantity)
	})

	t.Run("zero is equivalent to remove", func(t *testing.T) {
		before := CartTotal(cart)
		zeroed := UpdateCartQuantity(cart, 2, 0)
		removed := RemoveFromCart(cart, 2)

		assert.Equal(t, removed, zeroed)
		assert.True(t, before.Sub(decimal.NewFromInt(5)).Equal(CartTotal(zeroed)))
	})

	t.Run("negative removes", func(t *testing.T) {
		assert.Equal(t, []int64{1, 3}, ids(UpdateCartQuantity(cart, 2, -4)))
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		assert.Equal(t, cart, UpdateCartQuantity(cart, 42, 3))
	})
}

func TestCartTotal(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(CartTotal(nil)))

	var cart []models.CartItem
	cart = AddToCart(cart, product(1, "19.99"), 3)
	cart = AddToCart(cart, product(2, "0.10"), 2)
	cart = UpdateCartQuantity(cart, 1, 2)
	cart = AddToCart(cart, product(3, "5"), 1)
	cart = RemoveFromCart(cart, 3)

	expected := decimal.RequireFromString("19.99").Mul(decimal.NewFromInt(2)).
		Add(decimal.RequireFromString("0.10").Mul(decimal.NewFromInt(2)))
	assert.True(t, expected.Equal(CartTotal(cart)), "got %s", CartTotal(cart))
	assert.Equal(t, 4, CartItemCount(cart))
}

func TestProductReducers(t *testing.T) {
	products := []models.Product{product(1, "1"), product(2, "2"), product(3, "3")}

	changed := product(2, "20")
	replaced := ReplaceProduct(products, changed)
	assert.True(t, decimal.NewFromInt(20).Equal(replaced[1].Price))
	assert.True(t, decimal.NewFromInt(2).Equal(products[1].Price))

	assert.Equal(t, products, ReplaceProduct(products, product(9, "9")))

	removed := RemoveProduct(products, 2)
	assert.Len(t, removed, 2)
	assert.Len(t, products, 3)
}

func TestReplaceOrder(t *testing.T) {
	orders := []models.Order{
		{ID: "ORD-001", Status: models.OrderStatusPending},
		{ID: "ORD-002", Status: models.OrderStatusPending},
	}
	out := ReplaceOrder(orders, models.Order{ID: "ORD-002", Status: models.OrderStatusShipped})

	assert.Equal(t, models.OrderStatusShipped, out[1].Status)
	assert.Equal(t, models.OrderStatusPending, orders[1].Status)
}

func TestFilterProducts(t *testing.T) {
	products := []models.Product{
		{ID: 1, Name: "Quantum Laptop", CategoryID: 1},
		{ID: 2, Name: "The Art of Code", CategoryID: 2},
		{ID: 3, Name: "Smart Coffee Mug", CategoryID: 1},
	}

	tests := []struct {
		name     string
		query    string
		category int64
		want     []int64
	}{
		{"everything", "", 0, []int64{1, 2, 3}},
		{"case insensitive", "LAPTOP", 0, []int64{1}},
		{"category only", "", 1, []int64{1, 3}},
		{"query and category", "o", 2, []int64{2}},
		{"no match", "chair", 0, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterProducts(products, tt.query, tt.category)
			ids := make([]int64, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestOrdersForUser(t *testing.T) {
	orders := []models.Order{{ID: "a", UserID: "u1"}, {ID: "b", UserID: "u2"}, {ID: "c", UserID: "u1"}}

	got := OrdersForUser(orders, "u1")
	assert.Len(t, got, 2)
	assert.Empty(t, OrdersForUser(orders, "nobody"))
}

func ids(cart []models.CartItem) []int64 {
	out := make([]int64, 0, len(cart))
	for _, item := range cart {
		out = append(out, item.Product.ID)
	}
	return out
}
