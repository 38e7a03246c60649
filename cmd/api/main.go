package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpAdapter "github.com/prajwalc1/employee-timeline/internal/adapters/primary/http"
	kafkaAdapter "github.com/prajwalc1/employee-timeline/internal/adapters/primary/kafka"
	"github.com/prajwalc1/employee-timeline/internal/adapters/primary/websocket"
	"github.com/prajwalc1/employee-timeline/internal/adapters/secondary/email"
	"github.com/prajwalc1/employee-timeline/internal/adapters/secondary/memory"
	"github.com/prajwalc1/employee-timeline/internal/adapters/secondary/postgres"
	"github.com/prajwalc1/employee-timeline/internal/auth"
	"github.com/prajwalc1/employee-timeline/internal/config"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
	"github.com/prajwalc1/employee-timeline/internal/core/services"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/logging"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/metrics"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/secrets"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/telemetry"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		AddSource:   cfg.Logging.AddSource,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Tracing & Metrics
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := telemetry.ShutdownWithTimeout(context.Background(), shutdownTracing); err != nil {
			logger.Warn("tracer shutdown error", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 4. Repositories (Secondary Adapters)
	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer repos.close()

	// 5. Notification core
	renderer := services.NewRenderEngine()
	defaults := services.DefaultTemplates()
	eventRegistry, err := services.NewRegistry(services.DefaultEventDefinitions(), defaults, renderer)
	if err != nil {
		logger.Error("invalid event registry", "error", err)
		os.Exit(1)
	}

	templateStore := services.NewTemplateStore(repos.templates, defaults, eventRegistry, renderer, logger)

	providerCfg, err := services.NewProviderConfigService(ctx, repos.providerConfig, cfg.Mail.ProviderConfig(), logger)
	if err != nil {
		logger.Error("failed to load provider configuration", "error", err)
		os.Exit(1)
	}

	preview := email.NewPreviewProvider(cfg.Notification.PreviewHistory, logger)
	dispatcher := services.NewDispatcher(
		services.DispatcherConfig{
			MaxPerWindow: cfg.Notification.RateLimitMax,
			Window:       cfg.Notification.RateLimitWindow,
			SendTimeout:  cfg.Notification.SendTimeout,
		},
		eventRegistry,
		templateStore,
		renderer,
		providerCfg,
		email.NewProviderFactory(preview, logger),
		m,
		logger,
	)

	// 6. Real-time hub & event bus
	hub := websocket.NewHub(cfg.Notification.HubBuffer, m, logger)
	go hub.Run(ctx)

	bus := services.NewEventBus(cfg.Notification.BusBuffer, m, logger)
	bus.Subscribe(services.NewEmailSubscriber(dispatcher, logger))
	bus.Subscribe(services.NewRealtimeSubscriber(eventRegistry, hub, logger))
	bus.Start(ctx)

	notifications := services.NewNotificationService(eventRegistry, bus, logger)

	// 7. Optional Kafka ingress
	consumerDone := make(chan struct{})
	if cfg.Kafka.Enabled() {
		reader := kafkaAdapter.NewReader(kafkaAdapter.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		consumer := kafkaAdapter.NewConsumer(reader, notifications, m, logger)
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx); err != nil {
				logger.Error("kafka consumer stopped", "error", err)
			}
		}()
		logger.Info("kafka ingress enabled", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	} else {
		close(consumerDone)
	}

	// 8. Router
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		Config:         cfg,
		Logger:         logger,
		TokenManager:   auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL),
		Hub:            hub,
		Templates:      templateStore,
		Registry:       eventRegistry,
		Dispatcher:     dispatcher,
		Previews:       preview,
		ProviderConfig: providerCfg,
		Notifications:  notifications,
		Metrics:        m,
		HealthChecks:   repos.healthChecks,
	})

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Stop ingress before draining the bus so nothing publishes on a closed bus.
	<-consumerDone
	bus.Close()
	<-hub.Done()

	logger.Info("server shutdown complete")
}

type repositories struct {
	templates      ports.TemplateRepository
	providerConfig ports.ProviderConfigRepository
	healthChecks   map[string]httpAdapter.HealthChecker
	close          func()
}

// openRepositories uses PostgreSQL when DATABASE_URL is set and in-memory
// storage otherwise.
func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set, custom templates and provider settings are kept in memory")
		return &repositories{
			templates:      memory.NewTemplateRepository(),
			providerConfig: memory.NewProviderConfigRepository(),
			close:          func() {},
		}, nil
	}

	if err := postgres.Migrate(cfg.Database.MigrationsPath, cfg.Database.URL); err != nil {
		return nil, err
	}

	pool, err := postgres.Connect(ctx, postgres.PoolConfig{
		URL:             cfg.Database.URL,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	key := cfg.Secrets.CredentialsKey
	if key == "" {
		logger.Warn("CREDENTIALS_KEY not set, deriving the credential key from JWT_SECRET")
		key = cfg.JWT.Secret
	}
	box, err := secrets.NewBox(key)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &repositories{
		templates:      postgres.NewTemplateRepository(pool),
		providerConfig: postgres.NewProviderConfigRepository(pool, box),
		healthChecks:   map[string]httpAdapter.HealthChecker{"database": pool},
		close:          pool.Close,
	}, nil
}
