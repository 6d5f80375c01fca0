package handler

import (
	"net/http"

	"creativerse/internal/api/middleware"
	"creativerse/internal/app/service"
	"creativerse/internal/common"
	"creativerse/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	Responder
	userService *service.UserService
}

func NewUserHandler(us *service.UserService, rs Responder) *UserHandler {
	return &UserHandler{Responder: rs, userService: us}
}

// RegisterRoutes mounts under /users.
func (h *UserHandler) RegisterRoutes(r chi.Router, auth *middleware.Auth) {
	r.Get("/{userID}", h.getProfile)

	r.Group(func(authed chi.Router) {
		authed.Use(auth.Authenticator)
		authed.Patch("/{userID}", h.updateProfile)

		authed.Group(func(admin chi.Router) {
			admin.Use(middleware.AdminOnly)
			admin.Get("/", h.listUsers)
			admin.Patch("/{userID}/role", h.updateRole)
			admin.Delete("/{userID}", h.deleteUser)
		})
	})
}

func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.userService.GetProfile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.userService.UpdateProfile(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "userID"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, u)
}

// listUsers: GET /users?search=&role=
func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.userService.ListUsers(r.Context(), middleware.PrincipalFromContext(r.Context()), model.UserFilter{
		Search: q.Get("search"),
		Role:   q.Get("role"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.userService.UpdateUserRole(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "userID"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.DeleteUser(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "userID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
