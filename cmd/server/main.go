package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/commercekit/bluesnap-service/internal/adapters/bluesnap"
	"github.com/commercekit/bluesnap-service/internal/adapters/postgres"
	"github.com/commercekit/bluesnap-service/internal/adapters/secrets"
	"github.com/commercekit/bluesnap-service/internal/config"
	ipnHandler "github.com/commercekit/bluesnap-service/internal/handlers/ipn"
	paymentHandler "github.com/commercekit/bluesnap-service/internal/handlers/payment"
	subscriptionHandler "github.com/commercekit/bluesnap-service/internal/handlers/subscription"
	"github.com/commercekit/bluesnap-service/internal/services/fraud"
	paymentService "github.com/commercekit/bluesnap-service/internal/services/payment"
	shopperService "github.com/commercekit/bluesnap-service/internal/services/shopper"
	subscriptionService "github.com/commercekit/bluesnap-service/internal/services/subscription"
	"github.com/commercekit/bluesnap-service/pkg/observability"
)

func main() {
	// Local development reads .env; missing file is fine in production.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("starting bluesnap service",
		zap.String("environment", cfg.BlueSnap.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, &postgres.Config{
		DatabaseURL: cfg.Database.ConnectionString(),
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
	}, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	username, password := cfg.BlueSnap.Username, cfg.BlueSnap.Password
	if cfg.BlueSnap.SecretID != "" {
		manager, err := secrets.NewManager(ctx, &secrets.ManagerConfig{Region: cfg.BlueSnap.AWSRegion}, logger)
		if err != nil {
			logger.Fatal("failed to initialize secrets manager", zap.Error(err))
		}
		creds, err := manager.GetCredentials(ctx, cfg.BlueSnap.SecretID)
		if err != nil {
			logger.Fatal("failed to load bluesnap credentials", zap.Error(err))
		}
		username, password = creds.Username, creds.Password
	}

	client := bluesnap.NewClient(bluesnap.Config{
		Environment: bluesnap.Environment(cfg.BlueSnap.Environment),
		Username:    username,
		Password:    password,
		Timeout:     cfg.BlueSnap.Timeout,
	}, logger)

	shopperManager := shopperService.NewManager(
		bluesnap.NewShopperClient(client),
		postgres.NewShopperRepository(db),
		logger)

	paymentRepo := postgres.NewPaymentRepository(db)
	sessions := fraud.NewStore(cfg.BlueSnap.FraudSessionTTL)
	go sweepSessions(ctx, sessions, cfg.BlueSnap.FraudSessionTTL)
	payments := paymentService.NewService(
		paymentRepo,
		bluesnap.NewCardGateway(client, shopperManager, logger),
		bluesnap.NewEcpGateway(client, shopperManager, logger),
		sessions,
		logger)

	subscriptions := subscriptionService.NewService(
		postgres.NewSubscriptionRepository(db),
		bluesnap.NewRecurringClient(client),
		logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Group(func(r chi.Router) {
		// RealIP rewrites RemoteAddr from X-Forwarded-For. The IPN allowlist
		// trusts RemoteAddr, so RealIP stays scoped to the API routes and the
		// IPN endpoint keeps seeing the socket address.
		r.Use(middleware.RealIP)
		r.Route("/api/v1", func(r chi.Router) {
			paymentHandler.NewHandler(payments, logger).Routes(r)
			subscriptionHandler.NewHandler(subscriptions, logger).Routes(r)
		})
	})
	router.Method(http.MethodPost, "/ipn",
		ipnHandler.NewHandler(
			ipnHandler.NewAllowlist(cfg.BlueSnap.Production()),
			payments,
			subscriptions,
			logger))
	router.Handle("/metrics", observability.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// sweepSessions periodically drops expired fraud sessions for checkouts that
// never completed
func sweepSessions(ctx context.Context, sessions *fraud.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Sweep()
		}
	}
}

func initLogger(cfg config.LoggerConfig) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
