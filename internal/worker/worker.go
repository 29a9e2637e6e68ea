package worker

import (
	"context"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Invalidator drops cached collection snapshots
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

// Refresher reloads a container's cached collections
type Refresher interface {
	RefreshProducts(ctx context.Context) error
	RefreshOrders(ctx context.Context) error
}

// SyncWorker keeps this instance consistent with mutations made by other
// instances sharing the same backing store
type SyncWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	cache        Invalidator
	container    Refresher
	logger       *zap.Logger
}

// NewSyncWorker creates a new sync worker. Events published under source are
// ignored. cache may be nil when caching is disabled.
func NewSyncWorker(consumer *broker.Consumer, source string, cache Invalidator, container Refresher) *SyncWorker {
	w := &SyncWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(source),
		cache:        cache,
		container:    container,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnCatalogChange(w.handleCatalogChange)
	w.eventHandler.OnOrderChange(w.handleOrderChange)

	return w
}

// Start starts the worker
func (w *SyncWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting sync worker...")
	return w.consumer.StartConsuming(ctx, w.HandleMessage)
}

// Stop stops the worker
func (w *SyncWorker) Stop() error {
	w.logger.Info("Stopping sync worker...")
	return w.consumer.Close()
}

// HandleMessage processes a single event message
func (w *SyncWorker) HandleMessage(ctx context.Context, msg kafka.Message) error {
	return w.eventHandler.HandleMessage(ctx, msg)
}

func (w *SyncWorker) handleCatalogChange(ctx context.Context, event models.BaseEvent) error {
	w.invalidate(ctx, store.KeyProducts)
	w.logger.Info("Catalog changed elsewhere, refreshing",
		zap.String("event_type", event.EventType),
		zap.String("source", event.Source))
	return w.container.RefreshProducts(ctx)
}

func (w *SyncWorker) handleOrderChange(ctx context.Context, event models.BaseEvent) error {
	w.invalidate(ctx, store.KeyOrders)
	w.logger.Info("Orders changed elsewhere, refreshing",
		zap.String("event_type", event.EventType),
		zap.String("source", event.Source))
	return w.container.RefreshOrders(ctx)
}

func (w *SyncWorker) invalidate(ctx context.Context, key string) {
	if w.cache != nil {
		w.cache.Invalidate(ctx, key)
	}
}
