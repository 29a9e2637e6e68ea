package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidStatus   = errors.New("invalid order status")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrOutOfStock      = errors.New("insufficient stock")
)

var validate = validator.New()

// PriceScale is the number of decimal places a price may carry
const PriceScale = 2

func init() {
	// Prices and totals go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the catalog
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	ImageURL    string          `db:"image_url" json:"imageUrl"`
	CategoryID  int64           `db:"category_id" json:"categoryId"`
}

// InStock reports whether at least one unit can be added to a cart.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// ProductInput is a product without an id, used for creation
type ProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	ImageURL    string          `json:"imageUrl"`
	CategoryID  int64           `json:"categoryId" validate:"required"`
}

// Validate performs basic presence checks.
func (in ProductInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if !in.Price.Equal(in.Price.Round(PriceScale)) {
		return fmt.Errorf("%w: price has more than %d decimal places", ErrInvalidProduct, PriceScale)
	}
	return nil
}

// WithID builds the product this input describes.
func (in ProductInput) WithID(id int64) Product {
	return Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		CategoryID:  in.CategoryID,
	}
}

// Input strips the id from a product.
func (p Product) Input() ProductInput {
	return ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CategoryID:  p.CategoryID,
	}
}

// Category groups products. Read-only.
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// CartItem pairs a product snapshot with a quantity
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is price times quantity.
func (ci CartItem) Subtotal() decimal.Decimal {
	return ci.Product.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

// OrderStatus is the fulfilment state of an order
type OrderStatus string

// Order statuses
const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses lists every status in display order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseOrderStatus validates a status name.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, status := range OrderStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Order represents a customer order. Total is locked at creation and never
// recomputed from Items.
type Order struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Items        []CartItem      `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Status       OrderStatus     `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	CustomerName string          `json:"customerName"`
}

// Clone returns a deep copy.
func (o Order) Clone() Order {
	if o.Items != nil {
		items := make([]CartItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}

// Role of a user
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User represents a storefront account
type User struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
	Role  Role   `db:"role" json:"role"`
}

// CloneProducts copies a product slice.
func CloneProducts(in []Product) []Product {
	if in == nil {
		return nil
	}
	out := make([]Product, len(in))
	copy(out, in)
	return out
}

// CloneOrders deep-copies an order slice.
func CloneOrders(in []Order) []Order {
	if in == nil {
		return nil
	}
	out := make([]Order, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}

// CloneCategories copies a category slice.
func CloneCategories(in []Category) []Category {
	if in == nil {
		return nil
	}
	out := make([]Category, len(in))
	copy(out, in)
	return out
}

// CloneUsers copies a user slice.
func CloneUsers(in []User) []User {
	if in == nil {
		return nil
	}
	out := make([]User, len(in))
	copy(out, in)
	return out
}
