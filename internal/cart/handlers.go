package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dangminhtuanan/storefront/internal/middleware"
	"github.com/dangminhtuanan/storefront/internal/types/cart"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	items, err := h.svc.Get(r.Context(), actor.UserID)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []cart.Item{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *Handler) PutCart(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var items []cart.Item
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.svc.Replace(r.Context(), actor.UserID, items); err != nil {
		if errors.Is(err, ErrInvalidQuantity) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
