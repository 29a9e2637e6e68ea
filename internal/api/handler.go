package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/models"
	"storefront/internal/state"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency is usable
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	container *state.Container
	checks    map[string]ReadinessCheck
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(container *state.Container) *Handler {
	return &Handler{
		container: container,
		checks:    map[string]ReadinessCheck{},
		logger:    util.GetLogger(),
	}
}

// AddReadinessCheck registers a dependency checked by /ready
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/state", h.getState)
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/categories", h.listCategories)
		v1.GET("/orders/mine", h.myOrders)

		v1.POST("/session/login", h.login)
		v1.POST("/session/logout", h.logout)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PUT("/cart/items/:id", h.updateCartItem)
		v1.DELETE("/cart/items/:id", h.removeCartItem)
		v1.DELETE("/cart", h.clearCart)

		v1.DELETE("/notification", h.dismissNotification)

		admin := v1.Group("/admin", h.requireAdmin)
		{
			admin.POST("/products", h.createProduct)
			admin.PUT("/products/:id", h.updateProduct)
			admin.DELETE("/products/:id", h.deleteProduct)
			admin.PUT("/orders/:id/status", h.updateOrderStatus)
			admin.GET("/orders", h.listOrders)
			admin.GET("/users", h.listUsers)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports not ready while the initial load is pending or a
// dependency is down
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.container.Loading() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "loading",
			"time":   time.Now().Unix(),
		})
		return
	}

	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"failed":  name,
				"details": err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

type stateResponse struct {
	state.State
	CartTotal decimal.Decimal `json:"cartTotal"`
	CartCount int             `json:"cartCount"`
}

func (h *Handler) getState(c *gin.Context) {
	snap := h.container.Snapshot()
	c.JSON(http.StatusOK, stateResponse{
		State:     snap,
		CartTotal: state.CartTotal(snap.Cart),
		CartCount: state.CartItemCount(snap.Cart),
	})
}

// listProducts filters the catalog by ?q= and ?category=
func (h *Handler) listProducts(c *gin.Context) {
	var categoryID int64
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}
		categoryID = id
	}

	c.JSON(http.StatusOK, h.container.SearchProducts(c.Query("q"), categoryID))
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	product, found := h.container.Product(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.Snapshot().Categories)
}

func (h *Handler) myOrders(c *gin.Context) {
	if h.container.User() == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
		return
	}
	c.JSON(http.StatusOK, h.container.OrderHistory())
}

type loginRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role", "details": err.Error()})
		return
	}

	user, err := h.container.Login(c.Request.Context(), role)
	if err != nil {
		h.writeError(c, "Failed to log in", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) logout(c *gin.Context) {
	h.container.Logout()
	c.Status(http.StatusNoContent)
}

func (h *Handler) getCart(c *gin.Context) {
	cart := h.container.Cart()
	c.JSON(http.StatusOK, gin.H{
		"items": cart,
		"total": state.CartTotal(cart),
		"count": state.CartItemCount(cart),
	})
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, found := h.container.Product(req.ProductID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	if err := checkStock(product, cartQuantity(h.container.Cart(), product.ID)+quantity); err != nil {
		h.writeError(c, "Cannot add product to cart", err)
		return
	}

	h.container.AddToCart(product, quantity)
	h.getCart(c)
}

// checkStock rejects out-of-stock products and cart lines above the stock
func checkStock(product models.Product, wanted int) error {
	if !product.InStock() {
		return fmt.Errorf("%w: %s is out of stock", models.ErrOutOfStock, product.Name)
	}
	if wanted > product.Stock {
		return fmt.Errorf("%w: only %d of %s available", models.ErrOutOfStock, product.Stock, product.Name)
	}
	return nil
}

func cartQuantity(cart []models.CartItem, productID int64) int {
	for _, item := range cart {
		if item.Product.ID == productID {
			return item.Quantity
		}
	}
	return 0
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *Handler) updateCartItem(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	h.container.UpdateCartQuantity(id, *req.Quantity)
	h.getCart(c)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	h.container.RemoveFromCart(id)
	h.getCart(c)
}

func (h *Handler) clearCart(c *gin.Context) {
	h.container.ClearCart()
	c.Status(http.StatusNoContent)
}

func (h *Handler) dismissNotification(c *gin.Context) {
	h.container.DismissNotification()
	c.Status(http.StatusNoContent)
}

// requireAdmin hides admin routes from anyone not signed in as an admin
func (h *Handler) requireAdmin(c *gin.Context) {
	if !h.container.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}
	c.Next()
}

func (h *Handler) createProduct(c *gin.Context) {
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.container.AddProduct(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, "Failed to create product", err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.container.UpdateProduct(c.Request.Context(), input.WithID(id))
	if err != nil {
		h.writeError(c, "Failed to update product", err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	if err := h.container.DeleteProduct(c.Request.Context(), id); err != nil {
		h.writeError(c, "Failed to delete product", err)
		return
	}

	c.Status(http.StatusNoContent)
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.container.UpdateOrderStatus(c.Request.Context(), c.Param("id"), models.OrderStatus(req.Status))
	if err != nil {
		h.writeError(c, "Failed to update order status", err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) listOrders(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.Snapshot().Orders)
}

func (h *Handler) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.Snapshot().Users)
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return 0, false
	}
	return id, true
}

// writeError maps domain errors onto HTTP status codes
func (h *Handler) writeError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidProduct),
		errors.Is(err, models.ErrInvalidStatus):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrOutOfStock):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
