package handler

import (
	"net/http"

	"creativerse/internal/api/middleware"
	"creativerse/internal/app/service"
	"creativerse/internal/common"
	"creativerse/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ContestHandler struct {
	Responder
	contestService *service.ContestService
}

func NewContestHandler(cs *service.ContestService, rs Responder) *ContestHandler {
	return &ContestHandler{Responder: rs, contestService: cs}
}

// RegisterRoutes mounts under /contests. Nested payment, submission, winner and live routes
// are registered by their own handlers on the same subrouter.
func (h *ContestHandler) RegisterRoutes(r chi.Router, auth *middleware.Auth) {
	r.Group(func(public chi.Router) {
		public.Use(auth.Identify)
		public.Get("/", h.listContests)
		public.Get("/popular", h.popular)
		public.Get("/winners", h.recentWinners)
		public.Get("/{contestID}", h.getContest)
	})

	r.Group(func(private chi.Router) {
		private.Use(auth.Authenticator)
		private.Get("/mine", h.myContests)
		private.Post("/", h.createContest)
		private.Patch("/{contestID}", h.updateContest)
		private.Delete("/{contestID}", h.deleteContest)
	})
}

func (h *ContestHandler) createContest(w http.ResponseWriter, r *http.Request) {
	var req service.CreateContestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	contest, err := h.contestService.CreateContest(r.Context(), middleware.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, contest)
}

func (h *ContestHandler) updateContest(w http.ResponseWriter, r *http.Request) {
	var upd model.ContestUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		h.fail(w, r, err)
		return
	}

	contest, err := h.contestService.UpdateContest(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "contestID"), upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contest)
}

func (h *ContestHandler) deleteContest(w http.ResponseWriter, r *http.Request) {
	err := h.contestService.DeleteContest(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "contestID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContestHandler) getContest(w http.ResponseWriter, r *http.Request) {
	contest, err := h.contestService.GetContest(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "contestID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contest)
}

// listContests: GET /contests?search=&category=&sort=&status=&page=&limit=
func (h *ContestHandler) listContests(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	result, err := h.contestService.ListContests(r.Context(), middleware.PrincipalFromContext(r.Context()), service.ListContestsQuery{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Status:   q.Get("status"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ContestHandler) myContests(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.contestService.ListMyContests(r.Context(), middleware.PrincipalFromContext(r.Context()), page, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ContestHandler) popular(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	contests, err := h.contestService.PopularContests(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contests)
}

func (h *ContestHandler) recentWinners(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	contests, err := h.contestService.RecentWinners(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contests)
}
