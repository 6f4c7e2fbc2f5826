package order

import (
	"context"
	"time"

	"github.com/dangminhtuanan/storefront/internal/types/order"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *order.Order) error
	FindOrderByID(ctx context.Context, id string) (*order.Order, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]order.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, from, to order.OrderStatus, paidAt *time.Time) (bool, error)
	OverwriteOrderStatus(ctx context.Context, id string, to order.OrderStatus) error
	UpdateOrderAddress(ctx context.Context, id string, addr order.Address) error
	DeleteOrder(ctx context.Context, id string) error
	ListStalePending(ctx context.Context, method order.PaymentMethod, olderThan time.Time) ([]order.Order, error)
	CreateStatusAudit(ctx context.Context, a *order.StatusAudit) error
}
