package handler

import (
	"net/http"

	"creativerse/internal/app/service"
	"creativerse/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	Responder
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService, rs Responder) *AuthHandler {
	return &AuthHandler{Responder: rs, authService: authService}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
