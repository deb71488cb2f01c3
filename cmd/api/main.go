package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/numcheck/numcheck-api/internal/config"
	"github.com/numcheck/numcheck-api/internal/domain/admin"
	"github.com/numcheck/numcheck-api/internal/domain/auth"
	"github.com/numcheck/numcheck-api/internal/domain/credit"
	"github.com/numcheck/numcheck-api/internal/domain/events"
	"github.com/numcheck/numcheck-api/internal/domain/payment"
	"github.com/numcheck/numcheck-api/internal/domain/settings"
	"github.com/numcheck/numcheck-api/internal/domain/user"
	"github.com/numcheck/numcheck-api/internal/domain/validation"
	"github.com/numcheck/numcheck-api/internal/middleware"
	"github.com/numcheck/numcheck-api/internal/pkg/database"
	"github.com/numcheck/numcheck-api/internal/pkg/gateway"
	"github.com/numcheck/numcheck-api/internal/pkg/jwt"
	"github.com/numcheck/numcheck-api/internal/pkg/logger"
	"github.com/numcheck/numcheck-api/internal/pkg/metrics"
	"github.com/numcheck/numcheck-api/internal/pkg/provider"
	pkgresponse "github.com/numcheck/numcheck-api/internal/pkg/response"
	"github.com/numcheck/numcheck-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting NumCheck API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.Migrate(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, caching and token revocation disabled")
		redis = nil
	}
	if redis != nil {
		defer database.CloseRedis(redis)
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	settingsRepo := settings.NewRepository(db)
	paymentRepo := payment.NewRepository(db)

	// ---------- External clients ----------
	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:    cfg.GatewayBaseURL,
		MerchantID: cfg.GatewayMerchant,
		SecretKey:  cfg.GatewaySecretKey,
		TestMode:   cfg.GatewayTestMode,
	})

	providerClient := provider.NewClient(provider.Config{
		BaseURL: cfg.ProviderBaseURL,
		APIKey:  cfg.ProviderAPIKey,
		Timeout: cfg.ProviderTimeout,
	})

	var r2Storage *storage.R2Storage
	if cfg.R2AccountID != "" {
		r2Storage, err = storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create R2 storage")
		}
	} else {
		log.Warn().Msg("R2 not configured, report exports disabled")
	}

	// ---------- Event hub ----------
	hub := events.NewHub()
	go hub.Run()
	eventsHandler := events.NewHandler(hub, cfg.AllowedOrigins)

	// ---------- Services ----------
	authService := auth.NewService(userRepo, jwtService, redis)
	creditService := credit.NewService(db)
	bulkCoordinator := credit.NewBulkCoordinator(creditService, userRepo)
	settingsService := settings.NewService(settingsRepo, redis)

	paymentService := payment.NewService(paymentRepo, db, creditService, gatewayClient, payment.Config{
		WebhookSecret: cfg.GatewaySecretKey,
		CallbackURL:   cfg.PublicBaseURL + "/webhooks/payments",
		FrontendURL:   cfg.FrontendURL,
	})
	paymentService.SetEvents(hub)
	paymentWatcher := payment.NewWatcher(paymentService, cfg.PaymentPollInterval, cfg.PaymentPollAttempts)

	validationService := validation.NewService(settingsService, creditService, providerClient, redis, cfg.ValidationCacheTTL)

	adminRepo := admin.NewRepository(db)
	adminService := admin.NewService(adminRepo)
	adminJWT := admin.NewJWTService(cfg.JWTSecret, cfg.AdminTokenTTL)
	exporter := admin.NewExporter(creditService, r2Storage)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	settingsHandler := settings.NewHandler(settingsService)
	paymentHandler := payment.NewHandler(paymentService, paymentWatcher)
	validationHandler := validation.NewHandler(validationService)
	adminHandler := admin.NewHandler(adminService, adminJWT, creditService, bulkCoordinator, userRepo, settingsService, exporter)
	adminHandler.SetEvents(hub)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// WebSocket endpoint, token comes via query string
	r.Get("/events/ws", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(eventsHandler.Subscribe)).ServeHTTP(w, r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Mount("/auth", authHandler.Routes(authMiddleware))

		r.Get("/platform-settings", settingsHandler.Get)

		r.Route("/validate", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", validationHandler.Validate)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/packages", paymentHandler.Packages)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware)
				r.Post("/create-checkout", paymentHandler.CreateCheckout)
				r.Get("/status/{session_id}", paymentHandler.Status)
				r.Get("/await/{session_id}", paymentHandler.Await)
				r.Get("/history", paymentHandler.History)
			})
		})
	})

	r.Post("/webhooks/payments", paymentHandler.Webhook)

	r.Mount("/api/admin", adminHandler.Routes())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	hub.Stop()

	log.Info().Msg("Server exited properly")
}
