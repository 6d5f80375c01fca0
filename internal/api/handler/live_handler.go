package handler

import (
	"net/http"

	"creativerse/internal/api/middleware"
	"creativerse/internal/app/service"
	"creativerse/internal/platform/events"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"
)

// LiveHandler streams a contest's events over a websocket.
type LiveHandler struct {
	Responder
	contestService *service.ContestService
	hub            *events.Hub
	upgrader       websocket.Upgrader
}

func NewLiveHandler(cs *service.ContestService, hub *events.Hub, rs Responder) *LiveHandler {
	return &LiveHandler{
		Responder:      rs,
		contestService: cs,
		hub:            hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// RegisterContestRoutes mounts under /contests.
func (h *LiveHandler) RegisterContestRoutes(r chi.Router, auth *middleware.Auth) {
	r.With(auth.Identify).Get("/{contestID}/live", h.serveLive)
}

func (h *LiveHandler) serveLive(w http.ResponseWriter, r *http.Request) {
	// Only contests the caller may see can be watched.
	contest, err := h.contestService.GetContest(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "contestID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := events.NewClient(uuid.NewString(), contest.ID, conn, h.hub)
	if !h.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump()
}
