package handler

import (
	"net/http"

	"creativerse/internal/app/service"
	"creativerse/internal/common"

	"github.com/go-chi/chi/v5"
)

type LeaderboardHandler struct {
	Responder
	leaderboardService *service.LeaderboardService
}

func NewLeaderboardHandler(ls *service.LeaderboardService, rs Responder) *LeaderboardHandler {
	return &LeaderboardHandler{Responder: rs, leaderboardService: ls}
}

// RegisterRoutes mounts under /leaderboard.
func (h *LeaderboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.leaderboard)
}

// RegisterUserRoutes mounts under /users.
func (h *LeaderboardHandler) RegisterUserRoutes(r chi.Router) {
	r.Get("/{userID}/stats", h.userStats)
}

func (h *LeaderboardHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entries, err := h.leaderboardService.ComputeLeaderboard(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *LeaderboardHandler) userStats(w http.ResponseWriter, r *http.Request) {
	entry, err := h.leaderboardService.UserStats(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entry)
}
