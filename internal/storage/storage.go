package storage

import (
	"context"
	"time"

	"github.com/dangminhtuanan/storefront/internal/types/cart"
	"github.com/dangminhtuanan/storefront/internal/types/order"
	"github.com/dangminhtuanan/storefront/internal/types/payment"
	"github.com/dangminhtuanan/storefront/internal/types/product"
	"github.com/dangminhtuanan/storefront/internal/types/user"
)

// UserRepository отвечает за операции над пользователями.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	FindByLogin(ctx context.Context, login string) (*user.User, error)
}

// ProductRepository — каталог и остатки.
type ProductRepository interface {
	FindProductByID(ctx context.Context, id int64) (*product.Product, error)
	ListProducts(ctx context.Context) ([]product.Product, error)
	// DecrementStock атомарно списывает остаток; false — товара не хватает.
	DecrementStock(ctx context.Context, productID int64, qty int32) (bool, error)
	RestoreStock(ctx context.Context, productID int64, qty int32) error
}

// CartRepository — корзина покупателя, по одной строке на товар.
type CartRepository interface {
	GetCart(ctx context.Context, userID int64) ([]cart.Item, error)
	ReplaceCart(ctx context.Context, userID int64, items []cart.Item) error
	ClearCart(ctx context.Context, userID int64) error
}

// OrderRepository отвечает за операции над заказами.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *order.Order) error
	FindOrderByID(ctx context.Context, id string) (*order.Order, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]order.Order, error)
	// UpdateOrderStatus меняет статус только если текущий равен from (CAS).
	UpdateOrderStatus(ctx context.Context, id string, from, to order.OrderStatus, paidAt *time.Time) (bool, error)
	// OverwriteOrderStatus пишет статус без проверки перехода (админский override).
	OverwriteOrderStatus(ctx context.Context, id string, to order.OrderStatus) error
	UpdateOrderAddress(ctx context.Context, id string, addr order.Address) error
	DeleteOrder(ctx context.Context, id string) error
	ListStalePending(ctx context.Context, method order.PaymentMethod, olderThan time.Time) ([]order.Order, error)
	CreateStatusAudit(ctx context.Context, a *order.StatusAudit) error
}

// PaymentRepository — журнал подтверждённых платежей, ключ идемпотентности TxnRef.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *payment.Payment) error
	FindPaymentByTxnRef(ctx context.Context, txnRef string) (*payment.Payment, error)
}

// Storage объединяет все репозитории.
type Storage interface {
	UserRepository
	ProductRepository
	CartRepository
	OrderRepository
	PaymentRepository

	// Для управления соединением
	Ping(ctx context.Context) error
	Close() error
}
