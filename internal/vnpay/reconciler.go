package vnpay

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"time"

	"github.com/dangminhtuanan/storefront/internal/logger"
	ordersvc "github.com/dangminhtuanan/storefront/internal/order"
	"github.com/dangminhtuanan/storefront/internal/types/order"
	"github.com/dangminhtuanan/storefront/internal/types/payment"
	"go.uber.org/zap"
)

const (
	msgVerifyFailed = "payment verification failed"
	msgNotCompleted = "payment was not completed"
	msgNotEligible  = "order is not awaiting payment"
	msgConfirmed    = "payment confirmed"
)

// OrderLifecycle — операции над заказом, нужные при подтверждении оплаты.
type OrderLifecycle interface {
	GetByID(ctx context.Context, id string) (*order.Order, error)
	MarkPaid(ctx context.Context, id string) error
}

// Carts чистит корзину покупателя после успешной оплаты.
type Carts interface {
	Clear(ctx context.Context, userID int64) error
}

// PaymentLedger — журнал подтверждённых платежей по txn ref.
type PaymentLedger interface {
	CreatePayment(ctx context.Context, p *payment.Payment) error
	FindPaymentByTxnRef(ctx context.Context, txnRef string) (*payment.Payment, error)
}

// ReturnOutcome — то, что увидит страница возврата. Сырые параметры шлюза
// наружу не отдаются.
type ReturnOutcome struct {
	IsVerified bool   `json:"is_verified"`
	IsSuccess  bool   `json:"is_success"`
	OrderID    string `json:"order_id,omitempty"`
	Message    string `json:"message"`
}

// Reconciler сводит проверенный колбэк шлюза с состоянием заказа и корзины.
type Reconciler struct {
	client   *Client
	orders   OrderLifecycle
	carts    Carts
	payments PaymentLedger
}

func NewReconciler(client *Client, orders OrderLifecycle, carts Carts, payments PaymentLedger) *Reconciler {
	return &Reconciler{client: client, orders: orders, carts: carts, payments: payments}
}

// HandleReturn обрабатывает возврат браузера со шлюза. Повтор того же
// колбэка (перезагрузка страницы) безопасен: заказ уже paid — no-op,
// платёж уже в журнале — короткий путь к успеху, пустая корзина — no-op.
// Ошибка возвращается только при недоступности хранилища.
func (r *Reconciler) HandleReturn(ctx context.Context, q url.Values) (ReturnOutcome, error) {
	res := r.client.VerifyReturn(q)
	if !res.IsVerified {
		logger.Log.Warn("unverified payment callback",
			zap.String("reason", res.Message),
			zap.String("query", q.Encode()))
		return ReturnOutcome{Message: msgVerifyFailed}, nil
	}

	o, err := r.orders.GetByID(ctx, res.TxnRef)
	if err != nil {
		if errors.Is(err, ordersvc.ErrOrderNotFound) {
			logger.Log.Warn("payment callback for unknown order",
				zap.String("txn_ref", res.TxnRef),
				zap.String("query", q.Encode()))
			return ReturnOutcome{Message: msgVerifyFailed}, nil
		}
		return ReturnOutcome{}, err
	}

	// Сумма заказа — эталон. Подпись может сойтись и на подменённой сумме,
	// поэтому проверки независимы.
	if o.Total != res.Amount {
		logger.Log.Warn("payment callback amount mismatch",
			zap.String("order_id", o.ID),
			zap.Int64("order_total", o.Total),
			zap.Int64("callback_amount", res.Amount),
			zap.String("query", q.Encode()))
		return ReturnOutcome{Message: msgVerifyFailed}, nil
	}

	if !res.IsSuccess {
		// Заказ остаётся pending и доступен для повторной оплаты.
		return ReturnOutcome{IsVerified: true, OrderID: o.ID, Message: msgNotCompleted}, nil
	}

	if p, err := r.payments.FindPaymentByTxnRef(ctx, res.TxnRef); err == nil && p != nil {
		return ReturnOutcome{IsVerified: true, IsSuccess: true, OrderID: o.ID, Message: msgConfirmed}, nil
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return ReturnOutcome{}, err
	}

	if err := r.orders.MarkPaid(ctx, o.ID); err != nil {
		if errors.Is(err, ordersvc.ErrInvalidTransition) {
			// заказ отменён или ушёл дальше по пайплайну
			return ReturnOutcome{IsVerified: true, OrderID: o.ID, Message: msgNotEligible}, nil
		}
		return ReturnOutcome{}, err
	}

	rec := &payment.Payment{
		TxnRef:       res.TxnRef,
		OrderID:      o.ID,
		Amount:       res.Amount,
		ResponseCode: res.ResponseCode,
		BankCode:     res.BankCode,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.payments.CreatePayment(ctx, rec); err != nil {
		// заказ уже оплачен; журнал догонит при повторе, пользователя не валим
		logger.Log.Error("record payment", zap.String("txn_ref", res.TxnRef), zap.Error(err))
	}

	if o.CustomerID != nil {
		if err := r.carts.Clear(ctx, *o.CustomerID); err != nil {
			logger.Log.Error("clear cart after payment",
				zap.Int64("user_id", *o.CustomerID), zap.Error(err))
		}
	}

	return ReturnOutcome{IsVerified: true, IsSuccess: true, OrderID: o.ID, Message: msgConfirmed}, nil
}
