package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventWriter is the part of Producer used by EventPublisher
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer EventWriter
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer EventWriter) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishProductCreated publishes ProductCreated event
func (ep *EventPublisher) PublishProductCreated(ctx context.Context, event *models.ProductCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, productKey(event.Product.ID), event)
}

// PublishProductUpdated publishes ProductUpdated event
func (ep *EventPublisher) PublishProductUpdated(ctx context.Context, event *models.ProductUpdatedEvent) error {
	return ep.producer.PublishEvent(ctx, productKey(event.Product.ID), event)
}

// PublishProductDeleted publishes ProductDeleted event
func (ep *EventPublisher) PublishProductDeleted(ctx context.Context, event *models.ProductDeletedEvent) error {
	return ep.producer.PublishEvent(ctx, productKey(event.ProductID), event)
}

// PublishOrderStatusChanged publishes OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderID, event)
}

func productKey(id int64) string {
	return "product-" + strconv.FormatInt(id, 10)
}

// EventHandler handles incoming events
type EventHandler struct {
	source    string
	onCatalog func(context.Context, models.BaseEvent) error
	onOrders  func(context.Context, models.BaseEvent) error
}

// NewEventHandler creates a new event handler. Events whose source equals
// source were produced by this instance and are skipped.
func NewEventHandler(source string) *EventHandler {
	return &EventHandler{source: source}
}

// OnCatalogChange registers a handler for product events
func (eh *EventHandler) OnCatalogChange(handler func(context.Context, models.BaseEvent) error) {
	eh.onCatalog = handler
}

// OnOrderChange registers a handler for order events
func (eh *EventHandler) OnOrderChange(handler func(context.Context, models.BaseEvent) error) {
	eh.onOrders = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	util.EventsConsumedTotal.WithLabelValues(baseEvent.EventType).Inc()

	if eh.source != "" && baseEvent.Source == eh.source {
		return nil
	}

	util.GetLogger().Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID),
		zap.String("source", baseEvent.Source))

	switch baseEvent.EventType {
	case models.EventTypeProductCreated, models.EventTypeProductUpdated, models.EventTypeProductDeleted:
		if eh.onCatalog != nil {
			return eh.onCatalog(ctx, baseEvent)
		}

	case models.EventTypeOrderStatusChanged:
		if eh.onOrders != nil {
			return eh.onOrders(ctx, baseEvent)
		}

	default:
		util.GetLogger().Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
