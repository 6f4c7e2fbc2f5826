package order

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid сообщает, является ли строка известным статусом заказа.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodVNPay PaymentMethod = "vnpay"
	MethodCOD   PaymentMethod = "cod"
)

type Address struct {
	Name     string `db:"addr_name" json:"name"`
	Phone    string `db:"addr_phone" json:"phone"`
	Street   string `db:"addr_street" json:"street"`
	District string `db:"addr_district" json:"district"`
	City     string `db:"addr_city" json:"city"`
	// Raw — адрес одной строкой, для старых клиентов.
	Raw string `db:"addr_raw" json:"raw,omitempty"`
}

type LineItem struct {
	ID        int64  `db:"id" json:"-"`
	OrderID   string `db:"order_id" json:"-"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Quantity  int32  `db:"quantity" json:"quantity"`
	// UnitPrice фиксируется в момент оформления заказа, в донгах.
	UnitPrice int64 `db:"unit_price" json:"unit_price"`
}

type Order struct {
	ID         string        `db:"id" json:"id"`
	CustomerID *int64        `db:"customer_id" json:"customer_id,omitempty"`
	GuestEmail string        `db:"guest_email" json:"guest_email,omitempty"`
	Address    Address       `json:"address"`
	Items      []LineItem    `json:"items"`
	Total      int64         `db:"total" json:"total"`
	Method     PaymentMethod `db:"payment_method" json:"payment_method"`
	Status     OrderStatus   `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
	PaidAt     *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
}

// ComputeTotal считает сумму заказа по позициям.
func (o *Order) ComputeTotal() {
	var total int64
	for _, it := range o.Items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	o.Total = total
}

type StatusAudit struct {
	ID        int64       `db:"id" json:"-"`
	OrderID   string      `db:"order_id" json:"order_id"`
	From      OrderStatus `db:"from_status" json:"from"`
	To        OrderStatus `db:"to_status" json:"to"`
	ActorID   int64       `db:"actor_id" json:"actor_id"`
	Reason    string      `db:"reason" json:"reason"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
