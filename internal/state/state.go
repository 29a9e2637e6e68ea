package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LoadFailedMessage is shown when the startup fetch fails.
const LoadFailedMessage = "Failed to load data. Please refresh."

// DataAPI is the data service as seen by the container.
type DataAPI interface {
	FetchProducts(ctx context.Context) ([]models.Product, error)
	FetchCategories(ctx context.Context) ([]models.Category, error)
	FetchOrders(ctx context.Context) ([]models.Order, error)
	FetchUsers(ctx context.Context) ([]models.User, error)
	CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, product models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error)
	Login(ctx context.Context, role models.Role) (*models.User, error)
}

// State is everything a UI observes.
type State struct {
	Products     []models.Product  `json:"products"`
	Categories   []models.Category `json:"categories"`
	Orders       []models.Order    `json:"orders"`
	Users        []models.User     `json:"users"`
	Loading      bool              `json:"loading"`
	Notification string            `json:"notification"`
	User         *models.User      `json:"user"`
	Cart         []models.CartItem `json:"cart"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{
		Products:     nonNil(models.CloneProducts(s.Products)),
		Categories:   nonNil(models.CloneCategories(s.Categories)),
		Orders:       nonNil(models.CloneOrders(s.Orders)),
		Users:        nonNil(models.CloneUsers(s.Users)),
		Loading:      s.Loading,
		Notification: s.Notification,
		Cart:         nonNil(append([]models.CartItem(nil), s.Cart...)),
	}
	if s.User != nil {
		user := *s.User
		out.User = &user
	}
	return out
}

// Option configures a Container
type Option func(*Container)

// WithNotificationTTL overrides how long notifications stay visible.
func WithNotificationTTL(d time.Duration) Option {
	return func(c *Container) { c.ttl = d }
}

// WithTimerFactory replaces time.AfterFunc for notification expiry.
func WithTimerFactory(f TimerFactory) Option {
	return func(c *Container) { c.afterFunc = f }
}

// Container is the single source of truth for one client session. It caches
// the data service collections and owns the session user, the cart and the
// transient notification.
type Container struct {
	api       DataAPI
	sessionID string
	ttl       time.Duration
	afterFunc TimerFactory
	logger    *zap.Logger

	mu          sync.RWMutex
	state       State
	noticeTimer Timer
	noticeGen   uint64
}

// New creates a container in the loading state. Call Load to populate it.
func New(api DataAPI, opts ...Option) *Container {
	c := &Container{
		api:       api,
		sessionID: uuid.New().String(),
		ttl:       DefaultNotificationTTL,
		afterFunc: realTimer,
		logger:    util.GetLogger(),
		state: State{
			Products:   []models.Product{},
			Categories: []models.Category{},
			Orders:     []models.Order{},
			Users:      []models.User{},
			Cart:       []models.CartItem{},
			Loading:    true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionID identifies this container in logs.
func (c *Container) SessionID() string {
	return c.sessionID
}

// Load fetches the four collections concurrently. On success all of them are
// stored; on any failure none are and the load-failure notification is shown.
// Loading is false afterwards in both cases.
func (c *Container) Load(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "Container.Load")

	c.mu.Lock()
	c.state.Loading = true
	c.mu.Unlock()

	var (
		products   []models.Product
		categories []models.Category
		orders     []models.Order
		users      []models.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = c.api.FetchProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = c.api.FetchCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		orders, err = c.api.FetchOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = c.api.FetchUsers(gctx)
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false

	if err != nil {
		util.StateLoadFailuresTotal.Inc()
		c.logger.Error("Failed to fetch initial data", zap.String("session_id", c.sessionID), zap.Error(err))
		c.setNotificationLocked(LoadFailedMessage)
		util.EndSpan(span, err)
		return fmt.Errorf("failed to load data: %w", err)
	}

	c.state.Products = nonNil(products)
	c.state.Categories = nonNil(categories)
	c.state.Orders = nonNil(orders)
	c.state.Users = nonNil(users)

	c.logger.Info("Initial data loaded",
		zap.String("session_id", c.sessionID),
		zap.Int("products", len(products)),
		zap.Int("orders", len(orders)))
	util.EndSpan(span, nil)
	return nil
}

// RefreshProducts refetches the catalog after a change made elsewhere.
func (c *Container) RefreshProducts(ctx context.Context) error {
	products, err := c.api.FetchProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh products: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Products = nonNil(products)
	return nil
}

// RefreshOrders refetches the order list after a change made elsewhere.
func (c *Container) RefreshOrders(ctx context.Context) error {
	orders, err := c.api.FetchOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh orders: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Orders = nonNil(orders)
	return nil
}

// Loading reports whether the startup fetch is still pending.
func (c *Container) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Loading
}

// Snapshot returns a deep copy of the whole state.
func (c *Container) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

// Product looks up a product in the loaded catalog.
func (c *Container) Product(id int64) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.state.Products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// SearchProducts filters the loaded catalog by name and category.
func (c *Container) SearchProducts(query string, categoryID int64) []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return FilterProducts(c.state.Products, query, categoryID)
}

// OrderHistory returns the signed-in user's orders, or nil when anonymous.
func (c *Container) OrderHistory() []models.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.User == nil {
		return nil
	}
	return OrdersForUser(c.state.Orders, c.state.User.ID)
}

// Login signs in as the first user with role. Errors leave the session unchanged.
func (c *Container) Login(ctx context.Context, role models.Role) (*models.User, error) {
	user, err := c.api.Login(ctx, role)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	u := *user
	c.state.User = &u
	c.mu.Unlock()

	c.logger.Info("User logged in",
		zap.String("session_id", c.sessionID),
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))
	return user, nil
}

// Logout forgets the session user. The cart is kept.
func (c *Container) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.User = nil
}

// User returns the session user, or nil when anonymous.
func (c *Container) User() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.User == nil {
		return nil
	}
	u := *c.state.User
	return &u
}

// IsAdmin reports whether the session user is an administrator.
func (c *Container) IsAdmin() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.User != nil && c.state.User.Role == models.RoleAdmin
}

// AddToCart adds quantity units of product. A quantity below one adds a single unit.
func (c *Container) AddToCart(product models.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Cart = AddToCart(c.state.Cart, product, quantity)
	util.CartOperationsTotal.WithLabelValues("add").Inc()
	c.setNotificationLocked(fmt.Sprintf("%s added to cart!", product.Name))
}

// RemoveFromCart drops a product from the cart.
func (c *Container) RemoveFromCart(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(productID)
}

func (c *Container) removeLocked(productID int64) {
	c.state.Cart = RemoveFromCart(c.state.Cart, productID)
	util.CartOperationsTotal.WithLabelValues("remove").Inc()
	c.setNotificationLocked("Item removed from cart.")
}

// UpdateCartQuantity sets the quantity of a cart entry. Zero or less removes it.
func (c *Container) UpdateCartQuantity(productID int64, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if quantity <= 0 {
		c.removeLocked(productID)
		return
	}
	c.state.Cart = UpdateCartQuantity(c.state.Cart, productID, quantity)
	util.CartOperationsTotal.WithLabelValues("update").Inc()
}

// ClearCart empties the cart.
func (c *Container) ClearCart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Cart = []models.CartItem{}
	util.CartOperationsTotal.WithLabelValues("clear").Inc()
}

// Cart returns a copy of the cart.
func (c *Container) Cart() []models.CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.CartItem{}, c.state.Cart...)
}

// CartTotal is recomputed on every call.
func (c *Container) CartTotal() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CartTotal(c.state.Cart)
}

// CartItemCount is the number of units in the cart.
func (c *Container) CartItemCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CartItemCount(c.state.Cart)
}

// AddProduct creates a product and appends it to the catalog.
func (c *Container) AddProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	product, err := c.api.CreateProduct(ctx, input)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Products = append(models.CloneProducts(c.state.Products), *product)
	c.setNotificationLocked("Product added successfully!")
	return product, nil
}

// UpdateProduct saves a product and replaces it in the catalog.
func (c *Container) UpdateProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	updated, err := c.api.UpdateProduct(ctx, product)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Products = ReplaceProduct(c.state.Products, *updated)
	c.setNotificationLocked("Product updated successfully!")
	return updated, nil
}

// DeleteProduct deletes a product and drops it from the catalog.
func (c *Container) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.api.DeleteProduct(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Products = RemoveProduct(c.state.Products, id)
	c.setNotificationLocked("Product deleted successfully!")
	return nil
}

// UpdateOrderStatus moves an order to status and replaces it in the order list.
func (c *Container) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	order, err := c.api.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Orders = ReplaceOrder(c.state.Orders, *order)
	c.setNotificationLocked(fmt.Sprintf("Order %s status updated!", orderID))
	return order, nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
