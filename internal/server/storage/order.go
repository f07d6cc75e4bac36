package storage

import (
	"context"

	"github.com/iudanet/shopapp/internal/models"
)

// OrderStorage defines interface for order and order detail persistence
type OrderStorage interface {
	// CreateOrder stores an order together with its details in one transaction
	// Sets IDs on the order and on every detail
	CreateOrder(ctx context.Context, order *models.Order) error

	// GetOrder retrieves order with its details
	// Returns ErrOrderNotFound if order doesn't exist
	GetOrder(ctx context.Context, id int64) (*models.Order, error)

	// GetUserOrders retrieves all orders of a user
	GetUserOrders(ctx context.Context, userID int64) ([]*models.Order, error)

	// SearchOrders returns a page of active orders matching keyword and the total count
	SearchOrders(ctx context.Context, keyword string, page, limit int) ([]*models.Order, int, error)

	// ListActiveOrders returns all active orders (used for export)
	ListActiveOrders(ctx context.Context) ([]*models.Order, error)

	// UpdateOrder updates order fields (details are untouched)
	// Returns ErrOrderNotFound if order doesn't exist
	UpdateOrder(ctx context.Context, order *models.Order) error

	// SoftDeleteOrder marks order inactive
	// Returns ErrOrderNotFound if order doesn't exist
	SoftDeleteOrder(ctx context.Context, id int64) error

	// CreateOrderDetail creates a single order detail
	// Returns ErrOrderNotFound or ErrProductNotFound
	CreateOrderDetail(ctx context.Context, detail *models.OrderDetail) error

	// GetOrderDetail retrieves order detail by ID
	// Returns ErrOrderDetailNotFound if it doesn't exist
	GetOrderDetail(ctx context.Context, id int64) (*models.OrderDetail, error)

	// GetOrderDetails retrieves all details of an order
	GetOrderDetails(ctx context.Context, orderID int64) ([]*models.OrderDetail, error)

	// UpdateOrderDetail updates a single order detail
	// Returns ErrOrderDetailNotFound, ErrOrderNotFound or ErrProductNotFound
	UpdateOrderDetail(ctx context.Context, detail *models.OrderDetail) error

	// DeleteOrderDetail deletes order detail by ID
	// Returns ErrOrderDetailNotFound if it doesn't exist
	DeleteOrderDetail(ctx context.Context, id int64) error
}
