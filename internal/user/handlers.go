package user

import (
	"encoding/json"
	"net/http"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type credentialsReq struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type registerResp struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Role  string `json:"role"`
}

// Register создаёт учётку покупателя и сразу логинит её: токен в заголовке,
// созданный пользователь в теле.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.svc.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		code := http.StatusInternalServerError
		switch err {
		case ErrPasswordTooShort:
			code = http.StatusBadRequest
		case ErrUserExists:
			code = http.StatusConflict
		}
		http.Error(w, err.Error(), code)
		return
	}

	token, err := h.svc.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(registerResp{ID: u.ID, Login: u.Login, Role: string(u.Role)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	token, err := h.svc.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
}
