package handler

import (
	"net/http"

	"creativerse/internal/api/middleware"
	"creativerse/internal/app/service"
	"creativerse/internal/common"

	"github.com/go-chi/chi/v5"
)

type WinnerHandler struct {
	Responder
	winnerService *service.WinnerService
}

func NewWinnerHandler(ws *service.WinnerService, rs Responder) *WinnerHandler {
	return &WinnerHandler{Responder: rs, winnerService: ws}
}

// RegisterContestRoutes mounts under /contests.
func (h *WinnerHandler) RegisterContestRoutes(r chi.Router, auth *middleware.Auth) {
	r.With(auth.Authenticator).Post("/{contestID}/winner", h.declareWinner)
}

func (h *WinnerHandler) declareWinner(w http.ResponseWriter, r *http.Request) {
	var req service.DeclareWinnerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	contest, err := h.winnerService.DeclareWinner(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "contestID"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contest)
}
