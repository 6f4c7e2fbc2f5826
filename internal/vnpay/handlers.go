package vnpay

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/dangminhtuanan/storefront/internal/middleware"
	ordersvc "github.com/dangminhtuanan/storefront/internal/order"
	"github.com/dangminhtuanan/storefront/internal/types/order"
	usertype "github.com/dangminhtuanan/storefront/internal/types/user"
)

// OrderReader — выборка заказа с проверкой прав актора.
type OrderReader interface {
	Get(ctx context.Context, actor usertype.Actor, id string) (*order.Order, error)
}

type Handler struct {
	client *Client
	rec    *Reconciler
	orders OrderReader
}

func NewHandler(client *Client, rec *Reconciler, orders OrderReader) *Handler {
	return &Handler{client: client, rec: rec, orders: orders}
}

type createReq struct {
	OrderID string `json:"order_id"`
}

type createResp struct {
	PaymentURL string `json:"payment_url"`
}

// CreatePayment возвращает подписанный redirect URL для оплаты заказа.
// Сумма всегда берётся из сохранённого заказа, не из запроса.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	o, err := h.orders.Get(r.Context(), actor, req.OrderID)
	switch {
	case err == nil:
	case errors.Is(err, ordersvc.ErrOrderNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	case errors.Is(err, ordersvc.ErrForbidden):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if o.Status != order.StatusPending || o.Method != order.MethodVNPay {
		http.Error(w, "order is not awaiting gateway payment", http.StatusBadRequest)
		return
	}

	url := h.client.BuildPaymentURL(o.ID, o.Total, clientIP(r))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(createResp{PaymentURL: url})
}

// Return принимает redirect от шлюза. Ответ всегда 200 с исходом в теле:
// страница возврата должна отрисовать терминальное состояние.
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.rec.HandleReturn(r.Context(), r.URL.Query())
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome)
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
