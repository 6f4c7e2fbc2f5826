package order

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dangminhtuanan/storefront/internal/middleware"
	"github.com/dangminhtuanan/storefront/internal/product"
	"github.com/dangminhtuanan/storefront/internal/types/order"
	producttype "github.com/dangminhtuanan/storefront/internal/types/product"
	usertype "github.com/dangminhtuanan/storefront/internal/types/user"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// actorRequest собирает запрос с актором в контексте и, при необходимости,
// с параметром {id} маршрута chi.
func actorRequest(method, target, body string, actor usertype.Actor, id string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	ctx := middleware.ContextWithActor(req.Context(), actor)
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestHandlerCreateOrder(t *testing.T) {
	repo := &mockRepo{
		createOrderFn: func(ctx context.Context, o *order.Order) error { return nil },
	}
	inv := newMockInventory(&producttype.Product{ID: 7, Price: 150000, Stock: 10})
	h := NewHandler(NewService(repo, inv, stubCartSource{}))

	body := `{"items":[{"product_id":7,"quantity":2}],"address":{"raw":"1 Le Loi, HCMC"},"payment_method":"vnpay"}`
	w := httptest.NewRecorder()
	h.CreateOrder(w, actorRequest(http.MethodPost, "/api/orders", body, customerActor, ""))

	require.Equal(t, http.StatusCreated, w.Code)
	var got order.Order
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, int64(300000), got.Total)
	assert.Equal(t, order.StatusPending, got.Status)
}

func TestHandlerCreateOrderGuest(t *testing.T) {
	var created *order.Order
	repo := &mockRepo{
		createOrderFn: func(ctx context.Context, o *order.Order) error {
			created = o
			return nil
		},
	}
	inv := newMockInventory(&producttype.Product{ID: 7, Price: 150000, Stock: 10})
	h := NewHandler(NewService(repo, inv, stubCartSource{}))

	body := `{"items":[{"product_id":7,"quantity":1}],"address":{"raw":"1 Le Loi, HCMC"},"payment_method":"vnpay","guest_email":"guest@example.com"}`
	w := httptest.NewRecorder()
	h.CreateOrder(w, actorRequest(http.MethodPost, "/api/orders", body, guestActor, ""))

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, created)
	assert.Nil(t, created.CustomerID)
	assert.Equal(t, "guest@example.com", created.GuestEmail)
}

func TestHandlerCreateOrderValidation(t *testing.T) {
	h := NewHandler(NewService(&mockRepo{}, newMockInventory(), stubCartSource{}))

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `not json`, http.StatusBadRequest},
		{"unknown method", `{"items":[{"product_id":7,"quantity":1}],"address":{"raw":"a"},"payment_method":"paypal"}`, http.StatusBadRequest},
		{"zero quantity", `{"items":[{"product_id":7,"quantity":0}],"address":{"raw":"a"},"payment_method":"cod"}`, http.StatusBadRequest},
		{"missing address", `{"items":[{"product_id":7,"quantity":1}],"payment_method":"cod"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.CreateOrder(w, actorRequest(http.MethodPost, "/api/orders", tc.body, customerActor, ""))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestHandlerCreateOrderStockConflict(t *testing.T) {
	inv := newMockInventory(&producttype.Product{ID: 7, Price: 150000, Stock: 0})
	inv.reserveErr[7] = product.ErrInsufficientStock
	h := NewHandler(NewService(&mockRepo{}, inv, stubCartSource{}))

	body := `{"items":[{"product_id":7,"quantity":1}],"address":{"raw":"1 Le Loi, HCMC"},"payment_method":"cod"}`
	w := httptest.NewRecorder()
	h.CreateOrder(w, actorRequest(http.MethodPost, "/api/orders", body, customerActor, ""))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandlerCreateOrderUnknownProduct(t *testing.T) {
	h := NewHandler(NewService(&mockRepo{}, newMockInventory(), stubCartSource{}))

	body := `{"items":[{"product_id":99,"quantity":1}],"address":{"raw":"1 Le Loi, HCMC"},"payment_method":"cod"}`
	w := httptest.NewRecorder()
	h.CreateOrder(w, actorRequest(http.MethodPost, "/api/orders", body, customerActor, ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerGetOrder(t *testing.T) {
	o := pendingOrder(1)
	h := NewHandler(NewService(newStateRepo(o), newMockInventory(), stubCartSource{}))

	w := httptest.NewRecorder()
	h.GetOrder(w, actorRequest(http.MethodGet, "/api/orders/order-1", "", customerActor, "order-1"))
	require.Equal(t, http.StatusOK, w.Code)

	var got order.Order
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "order-1", got.ID)

	// чужой заказ — 403
	w = httptest.NewRecorder()
	h.GetOrder(w, actorRequest(http.MethodGet, "/api/orders/order-1", "",
		usertype.Actor{UserID: 2, Role: usertype.RoleCustomer}, "order-1"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// несуществующий — 404
	w = httptest.NewRecorder()
	h.GetOrder(w, actorRequest(http.MethodGet, "/api/orders/missing", "", customerActor, "missing"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerUpdateOrder(t *testing.T) {
	o := pendingOrder(1)
	h := NewHandler(NewService(newStateRepo(o), newMockInventory(), stubCartSource{}))

	w := httptest.NewRecorder()
	h.UpdateOrder(w, actorRequest(http.MethodPut, "/api/orders/order-1",
		`{"status":"paid"}`, staffActor, "order-1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.StatusPaid, o.Status)

	// запрещённый переход по таблице состояний — 400
	w = httptest.NewRecorder()
	h.UpdateOrder(w, actorRequest(http.MethodPut, "/api/orders/order-1",
		`{"status":"pending"}`, staffActor, "order-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// неизвестный статус — 400
	w = httptest.NewRecorder()
	h.UpdateOrder(w, actorRequest(http.MethodPut, "/api/orders/order-1",
		`{"status":"delivered"}`, staffActor, "order-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// пустое тело правки — 400
	w = httptest.NewRecorder()
	h.UpdateOrder(w, actorRequest(http.MethodPut, "/api/orders/order-1",
		`{}`, staffActor, "order-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerCancelOrder(t *testing.T) {
	o := pendingOrder(1)
	h := NewHandler(NewService(newStateRepo(o), newMockInventory(), stubCartSource{}))

	// чужому покупателю отменять нельзя
	w := httptest.NewRecorder()
	h.CancelOrder(w, actorRequest(http.MethodPut, "/api/orders/order-1/cancel", "",
		usertype.Actor{UserID: 2, Role: usertype.RoleCustomer}, "order-1"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	h.CancelOrder(w, actorRequest(http.MethodPut, "/api/orders/order-1/cancel", "", customerActor, "order-1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.StatusCancelled, o.Status)
}

func TestHandlerOverrideStatus(t *testing.T) {
	o := pendingOrder(1)
	repo := newStateRepo(o)
	repo.overwriteOrderStatusFn = func(ctx context.Context, id string, to order.OrderStatus) error {
		o.Status = to
		return nil
	}
	repo.createStatusAuditFn = func(ctx context.Context, a *order.StatusAudit) error { return nil }
	h := NewHandler(NewService(repo, newMockInventory(), stubCartSource{}))

	// без причины — 400
	w := httptest.NewRecorder()
	h.OverrideStatus(w, actorRequest(http.MethodPost, "/api/orders/order-1/override",
		`{"status":"completed"}`, adminActor, "order-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.OverrideStatus(w, actorRequest(http.MethodPost, "/api/orders/order-1/override",
		`{"status":"completed","reason":"support case 42"}`, adminActor, "order-1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.StatusCompleted, o.Status)
}

func TestHandlerDeleteOrder(t *testing.T) {
	deleted := false
	repo := &mockRepo{
		deleteOrderFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	h := NewHandler(NewService(repo, newMockInventory(), stubCartSource{}))

	w := httptest.NewRecorder()
	h.DeleteOrder(w, actorRequest(http.MethodDelete, "/api/orders/order-1", "", adminActor, "order-1"))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, deleted)
}
