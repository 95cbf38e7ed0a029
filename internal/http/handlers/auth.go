package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
	mw "github.com/neeravgigglesandgrins/giggles/internal/http/middleware"
	"github.com/neeravgigglesandgrins/giggles/internal/http/response"
	"github.com/neeravgigglesandgrins/giggles/internal/service"
)

type AuthHandlers struct {
	auth service.AuthService
}

func NewAuthHandlers(auth service.AuthService) *AuthHandlers {
	return &AuthHandlers{auth: auth}
}

// POST /api/auth/register
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	resp, err := h.auth.Register(r.Context(), &in)
	if err != nil {
		response.DomainError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, resp)
}

// POST /api/auth/login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	resp, err := h.auth.Login(r.Context(), &in)
	if err != nil {
		response.DomainError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, resp)
}

// GET /api/auth/me
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := mw.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	user, err := h.auth.GetUser(r.Context(), userID)
	if err != nil {
		response.DomainError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, user)
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
