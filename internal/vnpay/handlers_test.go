package vnpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dangminhtuanan/storefront/internal/middleware"
	ordersvc "github.com/dangminhtuanan/storefront/internal/order"
	"github.com/dangminhtuanan/storefront/internal/types/order"
	usertype "github.com/dangminhtuanan/storefront/internal/types/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderReaderFunc func(ctx context.Context, actor usertype.Actor, id string) (*order.Order, error)

func (f orderReaderFunc) Get(ctx context.Context, actor usertype.Actor, id string) (*order.Order, error) {
	return f(ctx, actor, id)
}

func newTestHandler(reader OrderReader) (*Handler, *Client) {
	rec, c, _, _, _ := newTestReconciler(nil)
	return NewHandler(c, rec, reader), c
}

func createRequest(body string, actor usertype.Actor) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/vnpay/create", strings.NewReader(body))
	return req.WithContext(middleware.ContextWithActor(req.Context(), actor))
}

func TestHandlerCreatePaymentGuestOrder(t *testing.T) {
	guest := usertype.Actor{Role: usertype.RoleCustomer, Guest: true}
	o := pendingVNPayOrder()
	o.CustomerID = nil
	o.GuestEmail = "guest@example.com"

	h, _ := newTestHandler(orderReaderFunc(func(ctx context.Context, actor usertype.Actor, id string) (*order.Order, error) {
		require.True(t, actor.Guest)
		require.Equal(t, o.ID, id)
		return o, nil
	}))

	// гость без токена получает ссылку на оплату своего заказа
	w := httptest.NewRecorder()
	h.CreatePayment(w, createRequest(`{"order_id":"order-1"}`, guest))

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		PaymentURL string `json:"payment_url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.PaymentURL, "vnp_TxnRef=order-1")
	assert.Contains(t, body.PaymentURL, "vnp_SecureHash=")
}

func TestHandlerCreatePaymentOwner(t *testing.T) {
	owner := usertype.Actor{UserID: 1, Role: usertype.RoleCustomer}
	o := pendingVNPayOrder()

	h, _ := newTestHandler(orderReaderFunc(func(ctx context.Context, actor usertype.Actor, id string) (*order.Order, error) {
		return o, nil
	}))

	w := httptest.NewRecorder()
	h.CreatePayment(w, createRequest(`{"order_id":"order-1"}`, owner))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandlerCreatePaymentNotEligible(t *testing.T) {
	owner := usertype.Actor{UserID: 1, Role: usertype.RoleCustomer}

	paid := pendingVNPayOrder()
	paid.Status = order.StatusPaid
	cod := pendingVNPayOrder()
	cod.Method = order.MethodCOD

	for _, o := range []*order.Order{paid, cod} {
		h, _ := newTestHandler(orderReaderFunc(func(ctx context.Context, actor usertype.Actor, id string) (*order.Order, error) {
			return o, nil
		}))
		w := httptest.NewRecorder()
		h.CreatePayment(w, createRequest(`{"order_id":"order-1"}`, owner))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestHandlerCreatePaymentErrors(t *testing.T) {
	owner := usertype.Actor{UserID: 1, Role: usertype.RoleCustomer}

	cases := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"not found", `{"order_id":"missing"}`, ordersvc.ErrOrderNotFound, http.StatusNotFound},
		{"foreign order", `{"order_id":"order-9"}`, ordersvc.ErrForbidden, http.StatusForbidden},
		{"empty order id", `{}`, nil, http.StatusBadRequest},
		{"malformed body", `not json`, nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestHandler(orderReaderFunc(func(ctx context.Context, actor usertype.Actor, id string) (*order.Order, error) {
				return nil, tc.err
			}))
			w := httptest.NewRecorder()
			h.CreatePayment(w, createRequest(tc.body, owner))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

// страница возврата всегда отвечает 200, исход платежа — в теле
func TestHandlerReturnAlwaysOK(t *testing.T) {
	o := pendingVNPayOrder()
	rec, c, _, _, _ := newTestReconciler(o)
	h := NewHandler(c, rec, orderReaderFunc(func(ctx context.Context, actor usertype.Actor, id string) (*order.Order, error) {
		return nil, ordersvc.ErrOrderNotFound
	}))

	q := signedReturn(c, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/vnpay/return?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	h.Return(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out ReturnOutcome
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.True(t, out.IsVerified)
	assert.True(t, out.IsSuccess)

	// испорченная подпись — всё равно 200, но исход не подтверждён
	q = signedReturn(c, nil)
	q.Set(paramSecureHash, strings.Repeat("0", 128))
	req = httptest.NewRequest(http.MethodGet, "/api/vnpay/return?"+q.Encode(), nil)
	w = httptest.NewRecorder()
	h.Return(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	out = ReturnOutcome{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.False(t, out.IsVerified)
	assert.False(t, out.IsSuccess)
}
