package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductInputValidate(t *testing.T) {
	valid := ProductInput{Name: "Lamp", Price: decimal.NewFromInt(20), Stock: 3, CategoryID: 4}

	tests := []struct {
		name    string
		mutate  func(in *ProductInput)
		wantErr bool
	}{
		{"valid", func(in *ProductInput) {}, false},
		{"zero price is allowed", func(in *ProductInput) { in.Price = decimal.Zero }, false},
		{"missing name", func(in *ProductInput) { in.Name = "" }, true},
		{"negative price", func(in *ProductInput) { in.Price = decimal.NewFromInt(-1) }, true},
		{"cents are allowed", func(in *ProductInput) { in.Price = decimal.RequireFromString("19.99") }, false},
		{"trailing zeros are allowed", func(in *ProductInput) { in.Price = decimal.RequireFromString("19.990") }, false},
		{"sub-cent price", func(in *ProductInput) { in.Price = decimal.RequireFromString("19.999") }, true},
		{"negative stock", func(in *ProductInput) { in.Stock = -2 }, true},
		{"missing category", func(in *ProductInput) { in.CategoryID = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProduct)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("Shipped")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, status)

	_, err = ParseOrderStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOrderCloneDoesNotShareItems(t *testing.T) {
	order := Order{
		ID:    "ORD-1",
		Items: []CartItem{{Product: Product{ID: 1, Name: "Mug"}, Quantity: 1}},
	}

	clone := order.Clone()
	clone.Items[0].Quantity = 9

	assert.Equal(t, 1, order.Items[0].Quantity)
}

func TestCartItemSubtotal(t *testing.T) {
	item := CartItem{Product: Product{Price: decimal.RequireFromString("12.50")}, Quantity: 3}
	assert.True(t, decimal.RequireFromString("37.5").Equal(item.Subtotal()))
}

func TestPricesMarshalAsNumbers(t *testing.T) {
	raw, err := json.Marshal(Product{ID: 1, Name: "Lamp", Price: decimal.RequireFromString("19.99")})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":19.99`)

	var back Product
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, decimal.RequireFromString("19.99").Equal(back.Price))

	var quoted Product
	require.NoError(t, json.Unmarshal([]byte(`{"price":"42.50"}`), &quoted))
	assert.True(t, decimal.RequireFromString("42.5").Equal(quoted.Price))
}
