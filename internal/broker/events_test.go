package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	keys   []string
	events []interface{}
}

func (w *recordingWriter) PublishEvent(ctx context.Context, key string, event interface{}) error {
	w.keys = append(w.keys, key)
	w.events = append(w.events, event)
	return nil
}

func TestEventPublisherKeys(t *testing.T) {
	w := &recordingWriter{}
	ep := NewEventPublisher(w)
	ctx := context.Background()

	require.NoError(t, ep.PublishProductCreated(ctx, &models.ProductCreatedEvent{Product: models.Product{ID: 7}}))
	require.NoError(t, ep.PublishProductDeleted(ctx, &models.ProductDeletedEvent{ProductID: 9}))
	require.NoError(t, ep.PublishOrderStatusChanged(ctx, &models.OrderStatusChangedEvent{OrderID: "ORD-001"}))

	assert.Equal(t, []string{"product-7", "product-9", "order-ORD-001"}, w.keys)
}

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestHandleMessageRouting(t *testing.T) {
	var catalog, orders []string

	eh := NewEventHandler("instance-a")
	eh.OnCatalogChange(func(ctx context.Context, e models.BaseEvent) error {
		catalog = append(catalog, e.EventType)
		return nil
	})
	eh.OnOrderChange(func(ctx context.Context, e models.BaseEvent) error {
		orders = append(orders, e.EventType)
		return nil
	})

	base := func(eventType, source string) models.BaseEvent {
		return models.BaseEvent{EventID: "e", EventType: eventType, Source: source, Timestamp: time.Now()}
	}

	ctx := context.Background()
	require.NoError(t, eh.HandleMessage(ctx, message(t, models.ProductUpdatedEvent{BaseEvent: base(models.EventTypeProductUpdated, "instance-b")})))
	require.NoError(t, eh.HandleMessage(ctx, message(t, models.OrderStatusChangedEvent{BaseEvent: base(models.EventTypeOrderStatusChanged, "instance-b")})))
	require.NoError(t, eh.HandleMessage(ctx, message(t, models.ProductDeletedEvent{BaseEvent: base(models.EventTypeProductDeleted, "instance-a")})))
	require.NoError(t, eh.HandleMessage(ctx, message(t, base("SOMETHING_ELSE", "instance-b"))))

	assert.Equal(t, []string{models.EventTypeProductUpdated}, catalog)
	assert.Equal(t, []string{models.EventTypeOrderStatusChanged}, orders)
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	eh := NewEventHandler("")
	err := eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)
}

func TestHeaderValue(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{
		{Key: HeaderEventType, Value: []byte(models.EventTypeProductDeleted)},
		{Key: HeaderSource, Value: []byte("instance-a")},
	}}

	assert.Equal(t, models.EventTypeProductDeleted, headerValue(msg, HeaderEventType))
	assert.Equal(t, "instance-a", headerValue(msg, HeaderSource))
	assert.Empty(t, headerValue(msg, "missing"))
}

func TestEventsExposeEnvelope(t *testing.T) {
	var e interface{} = &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeOrderStatusChanged, Source: "instance-b"},
	}
	env, ok := e.(enveloped)
	require.True(t, ok)
	assert.Equal(t, "instance-b", env.Envelope().Source)
}
