package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLatency is the simulated round trip of every data service call.
const DefaultLatency = 500 * time.Millisecond

// EventPublisher receives domain events after successful mutations
type EventPublisher interface {
	PublishProductCreated(ctx context.Context, event *models.ProductCreatedEvent) error
	PublishProductUpdated(ctx context.Context, event *models.ProductUpdatedEvent) error
	PublishProductDeleted(ctx context.Context, event *models.ProductDeletedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// FaultInjector decides whether a call to operation fails. A nil return lets
// the call proceed.
type FaultInjector func(operation string) error

// Option configures a DataService
type Option func(*DataService)

// WithLatency overrides the simulated round trip. Zero disables the delay.
func WithLatency(d time.Duration) Option {
	return func(s *DataService) { s.latency = d }
}

// WithEvents publishes domain events tagged with source.
func WithEvents(publisher EventPublisher, source string) Option {
	return func(s *DataService) {
		s.events = publisher
		s.source = source
	}
}

// WithFaults installs a fault injector.
func WithFaults(f FaultInjector) Option {
	return func(s *DataService) { s.faults = f }
}

// WithClock replaces time.Now for id generation and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *DataService) { s.now = now }
}

// DataService simulates a remote storefront backend. Each call applies its
// effect to the repository at once, then waits out the simulated latency.
// A context that ends during the wait makes the call return ctx.Err(), but the
// effect is not undone.
type DataService struct {
	repo    store.Repository
	latency time.Duration
	events  EventPublisher
	source  string
	faults  FaultInjector
	now     func() time.Time
	logger  *zap.Logger

	idMu   sync.Mutex
	lastID int64
}

// NewDataService creates a data service over repo
func NewDataService(repo store.Repository, opts ...Option) *DataService {
	s := &DataService{
		repo:    repo,
		latency: DefaultLatency,
		now:     time.Now,
		logger:  util.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchProducts returns every product
func (s *DataService) FetchProducts(ctx context.Context) ([]models.Product, error) {
	return call(ctx, s, "FetchProducts", s.repo.ListProducts)
}

// FetchCategories returns every category
func (s *DataService) FetchCategories(ctx context.Context) ([]models.Category, error) {
	return call(ctx, s, "FetchCategories", s.repo.ListCategories)
}

// FetchOrders returns every order
func (s *DataService) FetchOrders(ctx context.Context) ([]models.Order, error) {
	return call(ctx, s, "FetchOrders", s.repo.ListOrders)
}

// FetchUsers returns every user
func (s *DataService) FetchUsers(ctx context.Context) ([]models.User, error) {
	return call(ctx, s, "FetchUsers", s.repo.ListUsers)
}

// FetchProduct returns the product with id, or nil when there is none.
func (s *DataService) FetchProduct(ctx context.Context, id int64) (*models.Product, error) {
	return call(ctx, s, "FetchProduct", func(ctx context.Context) (*models.Product, error) {
		product, err := s.repo.GetProduct(ctx, id)
		if errors.Is(err, models.ErrProductNotFound) {
			return nil, nil
		}
		return product, err
	})
}

// CreateProduct assigns a fresh id and stores the product
func (s *DataService) CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	return call(ctx, s, "CreateProduct", func(ctx context.Context) (*models.Product, error) {
		if err := input.Validate(); err != nil {
			return nil, err
		}

		s.idMu.Lock()
		defer s.idMu.Unlock()

		id, err := s.nextProductID(ctx)
		if err != nil {
			return nil, err
		}

		product := input.WithID(id)
		if err := s.repo.CreateProduct(ctx, &product); err != nil {
			return nil, err
		}
		s.lastID = id

		util.ProductsCreatedTotal.Inc()
		s.logger.Info("Product created", zap.Int64("product_id", id), zap.String("name", product.Name))

		s.publish(ctx, models.EventTypeProductCreated, func(base models.BaseEvent) error {
			return s.events.PublishProductCreated(ctx, &models.ProductCreatedEvent{BaseEvent: base, Product: product})
		})

		return &product, nil
	})
}

// UpdateProduct replaces the stored product with the same id. An unknown id
// yields models.ErrProductNotFound.
func (s *DataService) UpdateProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	return call(ctx, s, "UpdateProduct", func(ctx context.Context) (*models.Product, error) {
		if err := product.Input().Validate(); err != nil {
			return nil, err
		}
		if err := s.repo.UpdateProduct(ctx, &product); err != nil {
			return nil, err
		}

		s.logger.Info("Product updated", zap.Int64("product_id", product.ID))

		s.publish(ctx, models.EventTypeProductUpdated, func(base models.BaseEvent) error {
			return s.events.PublishProductUpdated(ctx, &models.ProductUpdatedEvent{BaseEvent: base, Product: product})
		})

		return &product, nil
	})
}

// DeleteProduct removes a product. An unknown id yields models.ErrProductNotFound.
func (s *DataService) DeleteProduct(ctx context.Context, id int64) error {
	_, err := call(ctx, s, "DeleteProduct", func(ctx context.Context) (struct{}, error) {
		if err := s.repo.DeleteProduct(ctx, id); err != nil {
			return struct{}{}, err
		}

		util.ProductsDeletedTotal.Inc()
		s.logger.Info("Product deleted", zap.Int64("product_id", id))

		s.publish(ctx, models.EventTypeProductDeleted, func(base models.BaseEvent) error {
			return s.events.PublishProductDeleted(ctx, &models.ProductDeletedEvent{BaseEvent: base, ProductID: id})
		})

		return struct{}{}, nil
	})
	return err
}

// UpdateOrderStatus changes the status of an order and nothing else
func (s *DataService) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	return call(ctx, s, "UpdateOrderStatus", func(ctx context.Context) (*models.Order, error) {
		if _, err := models.ParseOrderStatus(string(status)); err != nil {
			return nil, err
		}

		order, err := s.repo.UpdateOrderStatus(ctx, orderID, status)
		if err != nil {
			return nil, err
		}

		util.OrderStatusChangesTotal.WithLabelValues(string(status)).Inc()
		s.logger.Info("Order status updated",
			zap.String("order_id", orderID),
			zap.String("status", string(status)))

		s.publish(ctx, models.EventTypeOrderStatusChanged, func(base models.BaseEvent) error {
			return s.events.PublishOrderStatusChanged(ctx, &models.OrderStatusChangedEvent{BaseEvent: base, OrderID: orderID, Status: status})
		})

		return order, nil
	})
}

// Login returns the first user holding role. There is no credential check.
func (s *DataService) Login(ctx context.Context, role models.Role) (*models.User, error) {
	return call(ctx, s, "Login", func(ctx context.Context) (*models.User, error) {
		user, err := s.repo.FindUserByRole(ctx, role)
		if err != nil {
			util.LoginsTotal.WithLabelValues(string(role), "not_found").Inc()
			return nil, err
		}
		util.LoginsTotal.WithLabelValues(string(role), "success").Inc()
		return user, nil
	})
}

// nextProductID derives an id from the clock, bumped past every id already
// issued or stored. Callers hold idMu.
func (s *DataService) nextProductID(ctx context.Context) (int64, error) {
	maxID, err := s.repo.MaxProductID(ctx)
	if err != nil {
		return 0, err
	}

	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	if id <= maxID {
		id = maxID + 1
	}
	return id, nil
}

func (s *DataService) publish(ctx context.Context, eventType string, send func(models.BaseEvent) error) {
	if s.events == nil {
		return
	}

	base := models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Source:    s.source,
		Timestamp: s.now(),
	}
	if err := send(base); err != nil {
		s.logger.Error("Failed to publish event", zap.String("event_type", eventType), zap.Error(err))
	}
}

// call runs fn detached from ctx cancellation, then waits out the latency.
func call[T any](ctx context.Context, s *DataService, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := util.StartSpan(ctx, "DataService."+op)
	start := time.Now()

	var (
		result T
		err    error
	)
	if s.faults != nil {
		if err = s.faults(op); err != nil {
			util.InjectedFaultsTotal.WithLabelValues(op).Inc()
		}
	}
	if err == nil {
		result, err = fn(context.WithoutCancel(ctx))
	}

	if waitErr := s.delay(ctx); waitErr != nil && err == nil {
		err = waitErr
	}

	util.DataServiceLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
		s.logger.Debug("Data service call failed", zap.String("operation", op), zap.Error(err))
	}
	util.DataServiceCallsTotal.WithLabelValues(op, outcome).Inc()
	util.EndSpan(span, err)

	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func (s *DataService) delay(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
