package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dangminhtuanan/storefront/internal/middleware"
	"github.com/dangminhtuanan/storefront/internal/product"
	"github.com/dangminhtuanan/storefront/internal/types/order"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	o, err := h.svc.Checkout(r.Context(), actor, &req)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(o)
	case errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrEmptyAddress), errors.Is(err, ErrGuestEmail):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, product.ErrProductNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, product.ErrInsufficientStock):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.List(r.Context())
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeOrders(w, orders)
}

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	orders, err := h.svc.ListMine(r.Context(), actor)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeOrders(w, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	o, err := h.svc.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(o)
}

type updateOrderReq struct {
	Status  order.OrderStatus `json:"status,omitempty"`
	Address *order.Address    `json:"address,omitempty"`
}

// UpdateOrder принимает статусный переход и/или правку адреса персоналом.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req updateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.Status == "" && req.Address == nil {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}

	if req.Status != "" {
		if err := h.svc.SetStatus(r.Context(), actor, id, req.Status); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Address != nil {
		if err := h.svc.UpdateAddress(r.Context(), actor, id, *req.Address); err != nil {
			writeError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if err := h.svc.Cancel(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type overrideReq struct {
	Status order.OrderStatus `json:"status"`
	Reason string            `json:"reason"`
}

func (h *Handler) OverrideStatus(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req overrideReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.svc.Override(r.Context(), actor, chi.URLParam(r, "id"), req.Status, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if err := h.svc.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeOrders(w http.ResponseWriter, orders []order.Order) {
	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrUnknownStatus), errors.Is(err, ErrEmptyReason):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
