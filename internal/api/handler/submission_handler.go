package handler

import (
	"net/http"

	"creativerse/internal/api/middleware"
	"creativerse/internal/app/service"
	"creativerse/internal/common"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	Responder
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(ss *service.SubmissionService, rs Responder) *SubmissionHandler {
	return &SubmissionHandler{Responder: rs, submissionService: ss}
}

// RegisterContestRoutes mounts under /contests.
func (h *SubmissionHandler) RegisterContestRoutes(r chi.Router, auth *middleware.Auth) {
	r.Group(func(authed chi.Router) {
		authed.Use(auth.Authenticator)
		authed.Post("/{contestID}/submissions", h.createSubmission)
		authed.Get("/{contestID}/submissions", h.listSubmissions)
	})
}

// RegisterUserRoutes mounts under /users.
func (h *SubmissionHandler) RegisterUserRoutes(r chi.Router, auth *middleware.Auth) {
	r.With(auth.Authenticator).Get("/{userID}/participations", h.participations)
	r.With(auth.Identify).Get("/{userID}/wins", h.wins)
}

func (h *SubmissionHandler) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	sub, err := h.submissionService.CreateSubmission(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "contestID"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, sub)
}

func (h *SubmissionHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissionService.ListSubmissions(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "contestID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}

func (h *SubmissionHandler) participations(w http.ResponseWriter, r *http.Request) {
	out, err := h.submissionService.ListUserParticipations(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, out)
}

func (h *SubmissionHandler) wins(w http.ResponseWriter, r *http.Request) {
	out, err := h.submissionService.ListUserWins(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, out)
}
