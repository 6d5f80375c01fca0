package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creativerse/internal/api"
	"creativerse/internal/api/middleware"
	"creativerse/internal/app/service"
	"creativerse/internal/app/worker"
	"creativerse/internal/common/security"
	"creativerse/internal/domain/repository"
	"creativerse/internal/domain/repository/memory"
	"creativerse/internal/platform/config"
	"creativerse/internal/platform/database"
	"creativerse/internal/platform/docstore"
	"creativerse/internal/platform/events"
	"creativerse/internal/platform/gateway"
	"creativerse/internal/platform/kv"
	"creativerse/internal/platform/logger"
	"creativerse/internal/platform/media"
	"creativerse/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type repositories struct {
	users       repository.UserRepository
	contests    repository.ContestRepository
	payments    repository.PaymentRepository
	submissions repository.SubmissionRepository
	leaderboard repository.LeaderboardRepository
	tx          repository.Transactor
}

func main() {
	// 1. Configuration and logging
	config.Load()
	logger.Init(config.AppConfig.LogLevel, config.AppConfig.LogPretty)
	if err := config.AppConfig.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Str("storage", config.AppConfig.StorageDriver).Msg("Configuration loaded")

	security.InitJWT()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	m := metrics.New(prometheus.DefaultRegisterer)

	// 2. Storage
	var repos repositories
	switch config.AppConfig.StorageDriver {
	case config.StorageMemory:
		store := memory.NewStore()
		repos = repositories{
			users:       store.Users(),
			contests:    store.Contests(),
			payments:    store.Payments(),
			submissions: store.Submissions(),
			leaderboard: store.Leaderboard(),
			tx:          store.Transactor(),
		}
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
	default:
		database.Connect()
		defer database.Close()
		if err := database.Migrate(rootCtx, database.DB); err != nil {
			log.Fatal().Err(err).Msg("Database migration failed")
		}
		repos = repositories{
			users:       repository.NewPgUserRepository(database.DB),
			contests:    repository.NewPgContestRepository(database.DB),
			payments:    repository.NewPgPaymentRepository(database.DB),
			submissions: repository.NewPgSubmissionRepository(database.DB),
			leaderboard: repository.NewPgLeaderboardRepository(database.DB),
			tx:          repository.NewSQLTransactor(database.DB),
		}
	}

	// 3. Optional infrastructure
	var locker worker.Locker = kv.NewLocalLocker()
	hasRedis, err := kv.ConnectRedis(rootCtx)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis unavailable")
	}
	if hasRedis {
		defer kv.CloseRedis()
		locker = kv.NewRedisLocker(kv.RDB)
	}

	var archive repository.CallbackArchive
	mongoDB, err := docstore.Connect(rootCtx)
	if err != nil {
		log.Fatal().Err(err).Msg("MongoDB unavailable")
	}
	if mongoDB != nil {
		defer docstore.Close(context.Background())
		archive = repository.NewMongoCallbackArchive(mongoDB)
	}

	hub := events.NewHub(m)
	go hub.Run(rootCtx)
	publishers := events.Multi{hub}
	if len(config.AppConfig.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(config.AppConfig.KafkaBrokers, config.AppConfig.KafkaTopicPrefix, m)
		defer kp.Close()
		publishers = append(publishers, kp)
		log.Info().Strs("brokers", config.AppConfig.KafkaBrokers).Msg("Publishing events to Kafka")
	}

	var gw service.PaymentGateway = gateway.Sandbox{SuccessURL: config.AppConfig.PaymentSuccessURL}
	if config.AppConfig.PaymentGatewayURL != "" {
		gw = gateway.NewSSLCommerz(gateway.Options{
			BaseURL:        config.AppConfig.PaymentGatewayURL,
			StoreID:        config.AppConfig.PaymentStoreID,
			StorePassword:  config.AppConfig.PaymentStorePassword,
			SuccessURL:     config.AppConfig.PaymentSuccessURL,
			FailURL:        config.AppConfig.PaymentFailURL,
			CallbackURL:    config.AppConfig.PaymentCallbackURL,
			CallbackSecret: config.AppConfig.PaymentCallbackSecret,
		})
	} else {
		log.Warn().Msg("PAYMENT_GATEWAY_URL not set, using the sandbox gateway")
	}
	if config.AppConfig.PaymentCallbackSecret == "" {
		log.Warn().Msg("PAYMENT_CALLBACK_SECRET not set, payment callbacks are rejected")
	}

	uploader, err := media.NewUploader(config.AppConfig.CloudinaryURL, config.AppConfig.MediaUploadPreset)
	if err != nil {
		log.Fatal().Err(err).Msg("Media uploader misconfigured")
	}
	if config.AppConfig.CloudinaryURL == "" {
		log.Warn().Msg("CLOUDINARY_URL not set, image uploads are disabled")
	}

	// 4. Services
	userService := service.NewUserService(repos.users)
	contestService := service.NewContestService(repos.contests, repos.tx, publishers, m)
	paymentService := service.NewPaymentService(repos.payments, repos.contests, repos.users, archive, gw, repos.tx, publishers, m)

	// 5. Background workers
	sweeper := worker.NewPaymentSweeper(repos.payments, locker, m, worker.SweeperOptions{
		StaleAfter: config.AppConfig.PaymentStaleAfter,
		Interval:   config.AppConfig.PaymentSweepInterval,
		LockKey:    config.AppConfig.PaymentSweepLockKey,
		LockTTL:    config.AppConfig.PaymentSweepLockTTL,
	})
	go sweeper.Start(rootCtx)

	rateLimiter := middleware.NewRateLimiter(config.AppConfig.RateLimitRPS, config.AppConfig.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				rateLimiter.Cleanup()
			}
		}
	}()

	// 6. Router and HTTP server
	router := api.NewRouter(api.Deps{
		Logger:             log.Logger,
		AuthService:        service.NewAuthService(repos.users),
		UserService:        userService,
		ContestService:     contestService,
		PaymentService:     paymentService,
		SubmissionService:  service.NewSubmissionService(repos.submissions, repos.contests, repos.payments, repos.tx, publishers, m),
		WinnerService:      service.NewWinnerService(repos.contests, repos.submissions, repos.tx, publishers, m),
		LeaderboardService: service.NewLeaderboardService(repos.leaderboard, repos.users),
		MediaService:       service.NewMediaService(uploader, config.AppConfig.MediaMaxBytes),
		Hub:                hub,
		Metrics:            m,
		Gatherer:           prometheus.DefaultGatherer,
		RateLimiter:        rateLimiter,
		CallbackSecret:     config.AppConfig.PaymentCallbackSecret,
	})

	// No WriteTimeout: it would cut live feed connections.
	server := &http.Server{
		Addr:              ":" + config.AppConfig.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 7. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", config.AppConfig.APIPort).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("port", config.AppConfig.APIPort).Msg("Could not listen")
		}
	}()

	<-stop

	log.Info().Msg("Shutting down server...")
	rootCancel() // stops the sweeper and closes live feeds

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Server and workers stopped gracefully")
}
