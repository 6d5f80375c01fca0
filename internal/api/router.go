package api

import (
	"net/http"

	"creativerse/internal/api/handler"
	"creativerse/internal/api/middleware"
	"creativerse/internal/app/service"
	"creativerse/internal/common/security"
	"creativerse/internal/platform/events"
	"creativerse/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps is everything the HTTP layer needs. RateLimiter and Gatherer are optional.
type Deps struct {
	Logger zerolog.Logger

	AuthService        *service.AuthService
	UserService        *service.UserService
	ContestService     *service.ContestService
	PaymentService     *service.PaymentService
	SubmissionService  *service.SubmissionService
	WinnerService      *service.WinnerService
	LeaderboardService *service.LeaderboardService
	MediaService       *service.MediaService

	Hub            *events.Hub
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RateLimiter    *middleware.RateLimiter
	CallbackSecret string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// No chi Timeout middleware: the live feed holds its connection open.
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics(d.Metrics))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware)
	}

	// Browsers cannot set headers on websocket upgrades, so the token may also come as ?jwt=.
	r.Use(jwtauth.Verify(security.TokenAuth, jwtauth.TokenFromHeader, jwtauth.TokenFromCookie, jwtauth.TokenFromQuery))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	auth := middleware.NewAuth(d.UserService)
	rs := handler.NewResponder(d.Metrics)

	authHandler := handler.NewAuthHandler(d.AuthService, rs)
	contestHandler := handler.NewContestHandler(d.ContestService, rs)
	paymentHandler := handler.NewPaymentHandler(d.PaymentService, d.CallbackSecret, rs)
	submissionHandler := handler.NewSubmissionHandler(d.SubmissionService, rs)
	winnerHandler := handler.NewWinnerHandler(d.WinnerService, rs)
	leaderboardHandler := handler.NewLeaderboardHandler(d.LeaderboardService, rs)
	userHandler := handler.NewUserHandler(d.UserService, rs)
	mediaHandler := handler.NewMediaHandler(d.MediaService, rs)
	liveHandler := handler.NewLiveHandler(d.ContestService, d.Hub, rs)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/auth", authHandler.RegisterRoutes)

		v1.Route("/contests", func(cr chi.Router) {
			contestHandler.RegisterRoutes(cr, auth)
			paymentHandler.RegisterContestRoutes(cr, auth)
			submissionHandler.RegisterContestRoutes(cr, auth)
			winnerHandler.RegisterContestRoutes(cr, auth)
			liveHandler.RegisterContestRoutes(cr, auth)
		})

		v1.Route("/payments", func(pr chi.Router) {
			paymentHandler.RegisterRoutes(pr, auth)
		})

		v1.Route("/leaderboard", leaderboardHandler.RegisterRoutes)

		v1.Route("/users", func(ur chi.Router) {
			userHandler.RegisterRoutes(ur, auth)
			leaderboardHandler.RegisterUserRoutes(ur)
			submissionHandler.RegisterUserRoutes(ur, auth)
		})

		v1.Route("/media", func(mr chi.Router) {
			mediaHandler.RegisterRoutes(mr, auth)
		})
	})

	return r
}
