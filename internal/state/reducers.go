package state

import (
	"strings"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// The functions below are pure transitions over state slices. They never
// modify their input and always return a fresh slice.

// AddToCart sums quantity into the entry for product, or appends a new entry
// at the end of the cart.
func AddToCart(cart []models.CartItem, product models.Product, quantity int) []models.CartItem {
	out := make([]models.CartItem, 0, len(cart)+1)
	found := false
	for _, item := range cart {
		if item.Product.ID == product.ID {
			item.Quantity += quantity
			found = true
		}
		out = append(out, item)
	}
	if !found {
		out = append(out, models.CartItem{Product: product, Quantity: quantity})
	}
	return out
}

// RemoveFromCart drops the entry for productID if present.
func RemoveFromCart(cart []models.CartItem, productID int64) []models.CartItem {
	out := make([]models.CartItem, 0, len(cart))
	for _, item := range cart {
		if item.Product.ID != productID {
			out = append(out, item)
		}
	}
	return out
}

// UpdateCartQuantity sets the quantity of an entry in place. A quantity of
// zero or less removes the entry.
func UpdateCartQuantity(cart []models.CartItem, productID int64, quantity int) []models.CartItem {
	if quantity <= 0 {
		return RemoveFromCart(cart, productID)
	}
	out := make([]models.CartItem, len(cart))
	for i, item := range cart {
		if item.Product.ID == productID {
			item.Quantity = quantity
		}
		out[i] = item
	}
	return out
}

// CartTotal is the sum of price times quantity over every entry.
func CartTotal(cart []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range cart {
		total = total.Add(item.Subtotal())
	}
	return total
}

// CartItemCount is the number of units in the cart.
func CartItemCount(cart []models.CartItem) int {
	n := 0
	for _, item := range cart {
		n += item.Quantity
	}
	return n
}

// ReplaceProduct swaps the product with the same id.
func ReplaceProduct(products []models.Product, product models.Product) []models.Product {
	out := models.CloneProducts(products)
	for i := range out {
		if out[i].ID == product.ID {
			out[i] = product
		}
	}
	return out
}

// RemoveProduct drops the product with id.
func RemoveProduct(products []models.Product, id int64) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// ReplaceOrder swaps the order with the same id.
func ReplaceOrder(orders []models.Order, order models.Order) []models.Order {
	out := models.CloneOrders(orders)
	for i := range out {
		if out[i].ID == order.ID {
			out[i] = order.Clone()
		}
	}
	return out
}

// FilterProducts keeps products whose name contains query, ignoring case, and
// that belong to categoryID. A zero categoryID matches every category.
func FilterProducts(products []models.Product, query string, categoryID int64) []models.Product {
	query = strings.ToLower(query)
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		if categoryID != 0 && p.CategoryID != categoryID {
			continue
		}
		out = append(out, p)
	}
	return out
}

// OrdersForUser keeps the orders placed by userID.
func OrdersForUser(orders []models.Order, userID string) []models.Order {
	out := make([]models.Order, 0)
	for _, o := range orders {
		if o.UserID == userID {
			out = append(out, o.Clone())
		}
	}
	return out
}
