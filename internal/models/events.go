package models

import "time"

// Event types
const (
	EventTypeProductCreated     = "PRODUCT_CREATED"
	EventTypeProductUpdated     = "PRODUCT_UPDATED"
	EventTypeProductDeleted     = "PRODUCT_DELETED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductCreatedEvent published when an admin adds a product
type ProductCreatedEvent struct {
	BaseEvent
	Product Product `json:"product"`
}

// ProductUpdatedEvent published when an admin edits a product
type ProductUpdatedEvent struct {
	BaseEvent
	Product Product `json:"product"`
}

// ProductDeletedEvent published when an admin removes a product
type ProductDeletedEvent struct {
	BaseEvent
	ProductID int64 `json:"product_id"`
}

// OrderStatusChangedEvent published when an admin moves an order along
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID string      `json:"order_id"`
	Status  OrderStatus `json:"status"`
}

// Envelope returns the common event fields; promoted to every event type
func (e BaseEvent) Envelope() BaseEvent {
	return e
}
