package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dangminhtuanan/storefront/internal/logger"
	"github.com/dangminhtuanan/storefront/internal/types/cart"
	"github.com/dangminhtuanan/storefront/internal/types/order"
	"github.com/dangminhtuanan/storefront/internal/types/product"
	usertype "github.com/dangminhtuanan/storefront/internal/types/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("operation not allowed")
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrEmptyAddress      = errors.New("shipping address required")
	ErrGuestEmail        = errors.New("guest checkout requires an email")
	ErrEmptyReason       = errors.New("override reason required")
)

// Inventory — каталог и остатки, нужные при оформлении и отмене заказа.
type Inventory interface {
	Get(ctx context.Context, id int64) (*product.Product, error)
	Reserve(ctx context.Context, id int64, qty int32) error
	Release(ctx context.Context, id int64, qty int32) error
}

// CartSource отдаёт сохранённую корзину покупателя для оформления без
// явного списка позиций.
type CartSource interface {
	Get(ctx context.Context, userID int64) ([]cart.Item, error)
}

type CheckoutItem struct {
	ProductID int64 `json:"product_id" validate:"required"`
	Quantity  int32 `json:"quantity" validate:"required,min=1"`
}

type CheckoutRequest struct {
	Items      []CheckoutItem      `json:"items" validate:"omitempty,dive"`
	Address    order.Address       `json:"address"`
	Method     order.PaymentMethod `json:"payment_method" validate:"required,oneof=vnpay cod"`
	GuestEmail string              `json:"guest_email" validate:"omitempty,email"`
}

type Service struct {
	repo  OrderRepository
	inv   Inventory
	carts CartSource
}

func NewService(repo OrderRepository, inv Inventory, carts CartSource) *Service {
	return &Service{repo: repo, inv: inv, carts: carts}
}

// Checkout создаёт заказ: снимает остатки, фиксирует цены, считает сумму.
// Сумма и позиции после создания не меняются. Пустой список позиций у
// авторизованного покупателя означает оформление его сохранённой корзины.
func (s *Service) Checkout(ctx context.Context, actor usertype.Actor, req *CheckoutRequest) (*order.Order, error) {
	if len(req.Items) == 0 {
		if actor.Guest {
			return nil, ErrEmptyOrder
		}
		saved, err := s.carts.Get(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		for _, it := range saved {
			req.Items = append(req.Items, CheckoutItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		if len(req.Items) == 0 {
			return nil, ErrEmptyOrder
		}
	}
	if req.Address.Raw == "" && (req.Address.Street == "" || req.Address.City == "") {
		return nil, ErrEmptyAddress
	}
	if actor.Guest && req.GuestEmail == "" {
		return nil, ErrGuestEmail
	}

	o := &order.Order{
		ID:      uuid.NewString(),
		Address: req.Address,
		Method:  req.Method,
		Status:  order.StatusPending,
	}
	if actor.Guest {
		o.GuestEmail = req.GuestEmail
	} else {
		id := actor.UserID
		o.CustomerID = &id
	}

	// Остатки списываются при оформлении. При частичном отказе уже
	// списанное возвращается обратно.
	var reserved []order.LineItem
	release := func() {
		for _, it := range reserved {
			if err := s.inv.Release(ctx, it.ProductID, it.Quantity); err != nil {
				logger.Log.Error("release stock after failed checkout",
					zap.Int64("product_id", it.ProductID), zap.Error(err))
			}
		}
	}

	for _, ci := range req.Items {
		p, err := s.inv.Get(ctx, ci.ProductID)
		if err != nil {
			release()
			return nil, err
		}
		if err := s.inv.Reserve(ctx, ci.ProductID, ci.Quantity); err != nil {
			release()
			return nil, err
		}
		reserved = append(reserved, order.LineItem{
			ProductID: ci.ProductID,
			Quantity:  ci.Quantity,
			UnitPrice: p.Price,
		})
	}

	now := time.Now().UTC()
	o.Items = reserved
	o.CreatedAt = now
	o.UpdatedAt = now
	o.ComputeTotal()

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		release()
		return nil, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, actor usertype.Actor, id string) (*order.Order, error) {
	o, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role.AtLeast(usertype.RoleStaff) {
		return o, nil
	}
	if actor.Guest {
		// у гостевого заказа нет владельца: доступ по знанию его UUID,
		// иначе гость не сможет оплатить собственный заказ
		if o.CustomerID == nil {
			return o, nil
		}
		return nil, ErrForbidden
	}
	if o.CustomerID == nil || *o.CustomerID != actor.UserID {
		return nil, ErrForbidden
	}
	return o, nil
}

// GetByID — внутренняя выборка без проверки прав, для реконсилера платежей.
func (s *Service) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return s.find(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]order.Order, error) {
	return s.repo.ListOrders(ctx)
}

func (s *Service) ListMine(ctx context.Context, actor usertype.Actor) ([]order.Order, error) {
	return s.repo.ListOrdersByCustomer(ctx, actor.UserID)
}

// SetStatus — штатный переход по таблице состояний. Повторная установка
// текущего статуса — no-op.
func (s *Service) SetStatus(ctx context.Context, actor usertype.Actor, id string, target order.OrderStatus) error {
	if !target.Valid() {
		return ErrUnknownStatus
	}
	o, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if o.Status == target {
		return nil
	}
	if err := CanTransition(o.Status, target, actor.Role); err != nil {
		return err
	}

	var paidAt *time.Time
	if target == order.StatusPaid {
		now := time.Now().UTC()
		paidAt = &now
	}
	ok, err := s.repo.UpdateOrderStatus(ctx, id, o.Status, target, paidAt)
	if err != nil {
		return err
	}
	if !ok {
		// статус уехал под нами между чтением и записью
		return ErrInvalidTransition
	}
	if target == order.StatusCancelled {
		s.releaseItems(ctx, o)
	}
	return nil
}

// Cancel — самостоятельная отмена покупателем, только свой заказ и только из pending.
func (s *Service) Cancel(ctx context.Context, actor usertype.Actor, id string) error {
	o, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if o.CustomerID == nil || actor.Guest || *o.CustomerID != actor.UserID {
		return ErrForbidden
	}
	if o.Status != order.StatusPending {
		return ErrInvalidTransition
	}
	ok, err := s.repo.UpdateOrderStatus(ctx, id, order.StatusPending, order.StatusCancelled, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	s.releaseItems(ctx, o)
	return nil
}

// MarkPaid переводит pending → paid от имени реконсилера платежей.
// Уже оплаченный заказ — безопасный no-op.
func (s *Service) MarkPaid(ctx context.Context, id string) error {
	o, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if o.Status == order.StatusPaid {
		return nil
	}
	if o.Status != order.StatusPending {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	ok, err := s.repo.UpdateOrderStatus(ctx, id, order.StatusPending, order.StatusPaid, &now)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	// CAS проиграл гонку: если заказ уже paid, это повтор колбэка
	o, err = s.find(ctx, id)
	if err != nil {
		return err
	}
	if o.Status == order.StatusPaid {
		return nil
	}
	return ErrInvalidTransition
}

// Override — административная перезапись статуса мимо таблицы переходов.
// Требует причину и пишет запись в аудит.
func (s *Service) Override(ctx context.Context, actor usertype.Actor, id string, target order.OrderStatus, reason string) error {
	if !actor.Role.AtLeast(usertype.RoleAdmin) {
		return ErrForbidden
	}
	if reason == "" {
		return ErrEmptyReason
	}
	if !target.Valid() {
		return ErrUnknownStatus
	}
	o, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.OverwriteOrderStatus(ctx, id, target); err != nil {
		return err
	}
	audit := &order.StatusAudit{
		OrderID:   id,
		From:      o.Status,
		To:        target,
		ActorID:   actor.UserID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateStatusAudit(ctx, audit); err != nil {
		logger.Log.Error("write status audit", zap.String("order_id", id), zap.Error(err))
	}
	return nil
}

func (s *Service) UpdateAddress(ctx context.Context, actor usertype.Actor, id string, addr order.Address) error {
	if !actor.Role.AtLeast(usertype.RoleStaff) {
		return ErrForbidden
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateOrderAddress(ctx, id, addr)
}

func (s *Service) Delete(ctx context.Context, actor usertype.Actor, id string) error {
	if !actor.Role.AtLeast(usertype.RoleAdmin) {
		return ErrForbidden
	}
	err := s.repo.DeleteOrder(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	return err
}

// ExpireStale отменяет зависшие pending-заказы, оплату по которым шлюз так и
// не подтвердил. COD-заказы не трогаем: их подтверждает персонал вручную.
func (s *Service) ExpireStale(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	stale, err := s.repo.ListStalePending(ctx, order.MethodVNPay, cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range stale {
		o := &stale[i]
		ok, err := s.repo.UpdateOrderStatus(ctx, o.ID, order.StatusPending, order.StatusCancelled, nil)
		if err != nil {
			logger.Log.Error("expire order", zap.String("order_id", o.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		s.releaseItems(ctx, o)
		expired++
	}
	return expired, nil
}

func (s *Service) find(ctx context.Context, id string) (*order.Order, error) {
	o, err := s.repo.FindOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

func (s *Service) releaseItems(ctx context.Context, o *order.Order) {
	for _, it := range o.Items {
		if err := s.inv.Release(ctx, it.ProductID, it.Quantity); err != nil {
			logger.Log.Error("restore stock on cancellation",
				zap.String("order_id", o.ID),
				zap.Int64("product_id", it.ProductID),
				zap.Error(err))
		}
	}
}
