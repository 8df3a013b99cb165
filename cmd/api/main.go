package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"

	yec "gitlab.com/yecreg/yec-backend"
	"gitlab.com/yecreg/yec-backend/internal/adapters/repos/postgres"
	"gitlab.com/yecreg/yec-backend/internal/adapters/services/chat"
	"gitlab.com/yecreg/yec-backend/internal/adapters/services/mail"
	notifyadapter "gitlab.com/yecreg/yec-backend/internal/adapters/services/notify"
	"gitlab.com/yecreg/yec-backend/internal/application/audit"
	"gitlab.com/yecreg/yec-backend/internal/application/events"
	"gitlab.com/yecreg/yec-backend/internal/application/notification"
	"gitlab.com/yecreg/yec-backend/internal/application/review"
	"gitlab.com/yecreg/yec-backend/internal/config"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/notify"
	eventbusport "gitlab.com/yecreg/yec-backend/internal/ports/eventbus"
	httpport "gitlab.com/yecreg/yec-backend/internal/ports/http"
	watermillport "gitlab.com/yecreg/yec-backend/internal/ports/watermill"
	"gitlab.com/yecreg/yec-backend/pkg/eventbus"
	"gitlab.com/yecreg/yec-backend/pkg/logging"
	pgpkg "gitlab.com/yecreg/yec-backend/pkg/postgres"
	"gitlab.com/yecreg/yec-backend/pkg/watermillx"
)

// Application holds the wired review core.
type Application struct {
	Bus          *eventbus.Bus
	Events       *events.Service
	Review       *review.App
	Notification *notification.App
	Audit        *audit.App
}

type Repositories struct {
	PgxPool      *pgxpool.Pool
	Registration *postgres.RegistrationRepo
	Audit        *postgres.AuditRepo
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, cleanupLogging := logging.Setup(cfg.Mode)
	slog.SetDefault(logger)
	defer cleanupLogging()

	shutdownOTel, err := setupOTelSDK(ctx, cfg.Telemetry.OTLP)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to set up OpenTelemetry SDK", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownOTel(ctx); err != nil {
			slog.ErrorContext(ctx, "Failed to shutdown OpenTelemetry SDK", "error", err)
		}
	}()

	slog.InfoContext(ctx, "Starting YEC review service",
		"mode", cfg.Mode,
		"port", cfg.Port,
		"event_bus_enabled", cfg.EventBus.Enabled,
		"notification_transport", cfg.Notification.Transport,
	)

	pool, err := setupDatabase(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to setup database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repos := setupRepositories(pool)

	publisher, subscriber, err := watermillx.NewPubSub(watermillx.PubSubConfig{
		Transport:     cfg.Notification.Transport,
		Conn:          pool,
		ConsumerGroup: "yec-notifications",
		Logger:        watermillx.NewSlogLogger(slog.Default(), slog.LevelInfo),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to setup notification transport", "error", err)
		os.Exit(1)
	}
	if err := watermillx.InitializeTopics(ctx, subscriber, notifyadapter.TopicEmail, notifyadapter.TopicChat); err != nil {
		slog.ErrorContext(ctx, "Failed to initialize notification topics", "error", err)
		os.Exit(1)
	}

	apps, err := setupApplications(cfg, repos, publisher)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to setup applications", "error", err)
		os.Exit(1)
	}

	runCtx, stopRouter := context.WithCancel(ctx)
	defer stopRouter()

	wmport, err := setupNotificationDelivery(cfg, subscriber)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to setup notification delivery", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := wmport.Run(runCtx); err != nil {
			slog.ErrorContext(ctx, "Notification router stopped", "error", err)
		}
	}()
	<-wmport.Running()

	httpServer := setupHTTPServer(cfg, repos, apps)

	go func() {
		slog.InfoContext(ctx, "Starting HTTP server", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "Server forced to shutdown", "error", err)
	}
	stopRouter()
	if err := publisher.Close(); err != nil {
		slog.ErrorContext(shutdownCtx, "Failed to close notification publisher", "error", err)
	}

	slog.InfoContext(ctx, "Server exited")
}

func setupDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgpkg.NewPgxPool(ctx, cfg.PgDSN, cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if cfg.Migrate {
		if err := pgpkg.Migrate(pgpkg.MigrateDSN(cfg.PgDSN), yec.Migrations); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return pool, nil
}

func setupRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		PgxPool:      pool,
		Registration: postgres.NewRegistrationRepo(pool, nil, nil),
		Audit:        postgres.NewAuditRepo(pool, nil, nil),
	}
}

func setupApplications(cfg *config.Config, repos *Repositories, publisher message.Publisher) (*Application, error) {
	cache, err := cfg.NewCache()
	if err != nil {
		return nil, fmt.Errorf("failed to create event cache: %w", err)
	}

	bus := eventbus.New(eventbus.Args{
		Cache:     cache,
		Transport: cfg.NewTransport(),
		Hooks:     eventbus.NewMetrics(prometheus.DefaultRegisterer),
	})

	sink := notifyadapter.NewPublisher(notifyadapter.PublisherArgs{
		Publisher: publisher,
		Channels:  cfg.Notification.Channels,
	})

	reviewApp := review.NewApp(review.Args{
		Store:          repos.Registration,
		ApprovalPolicy: cfg.ApprovalPolicy(),
	})
	notificationApp := notification.NewApp(notification.Args{
		Sink:            sink,
		AdminChatTarget: cfg.Notification.AdminChatTarget,
	})
	auditApp := audit.NewApp(audit.Args{
		Sink: repos.Audit,
	})

	if err := eventbusport.NewPort(bus).Register(eventbusport.AppEventHandlers{
		Status:       reviewApp.Event,
		Notification: notificationApp.Event,
		Audit:        auditApp.Event,
	}); err != nil {
		return nil, fmt.Errorf("failed to register event handlers: %w", err)
	}

	return &Application{
		Bus:          bus,
		Events:       events.NewService(events.Args{Bus: bus}),
		Review:       reviewApp,
		Notification: notificationApp,
		Audit:        auditApp,
	}, nil
}

func setupNotificationDelivery(cfg *config.Config, subscriber message.Subscriber) (*watermillport.Port, error) {
	wmlogger := watermillx.NewSlogLogger(slog.Default(), slog.LevelInfo)

	router, err := message.NewRouter(message.RouterConfig{}, wmlogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}

	port := watermillport.NewPort(router, subscriber, wmlogger, watermillport.RetryConfig{
		MaxRetries:      cfg.Notification.MaxRetries,
		InitialInterval: cfg.Notification.RetryInterval,
	})

	var deliverers watermillport.Deliverers
	if cfg.ChannelEnabled(notify.ChannelEmail) {
		deliverers.Email = mail.NewLogSender(slog.Default())
	}
	if cfg.ChannelEnabled(notify.ChannelChat) {
		if cfg.Notification.ChatWebhookURL != "" {
			deliverers.Chat = chat.NewWebhook(chat.WebhookArgs{URL: cfg.Notification.ChatWebhookURL})
		} else {
			slog.Warn("NOTIFICATION_CHAT_WEBHOOK_URL is empty, chat notifications will only be logged")
			deliverers.Chat = mail.NewLogSender(slog.Default())
		}
	}

	if err := port.Register(deliverers); err != nil {
		return nil, fmt.Errorf("failed to register deliverers: %w", err)
	}

	return port, nil
}

func setupHTTPServer(cfg *config.Config, repos *Repositories, apps *Application) *http.Server {
	router := chi.NewRouter()

	if cfg.Mode.AllowsLocalOrigins() {
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				origin := r.Header.Get("Origin")

				allowedOrigins := map[string]bool{
					"http://localhost:3000": true,
					"http://localhost:5173": true,
					"http://127.0.0.1:3000": true,
					"http://127.0.0.1:5173": true,
					"null":                  true,
				}

				if allowedOrigins[origin] {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				} else if origin == "" {
					w.Header().Set("Access-Control-Allow-Origin", "http://localhost:"+cfg.Port)
				}

				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept-Language, X-Actor-Email, X-Correlation-ID")
				w.Header().Set("Access-Control-Allow-Credentials", "true")

				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	httpport.NewPort(httpport.Args{
		Registrations:  repos.Registration,
		Events:         apps.Events,
		Gatherer:       prometheus.DefaultGatherer,
		Health:         repos.PgxPool.Ping,
		ApprovalPolicy: cfg.ApprovalPolicy(),
	}).Route(router)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// setupOTelSDK bootstraps the OpenTelemetry pipeline. Exporters are attached
// only when otlp is set; the endpoint comes from the standard OTEL_EXPORTER_OTLP_* variables.
// If it does not return an error, make sure to call shutdown for proper cleanup.
func setupOTelSDK(ctx context.Context, otlp bool) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	handleErr := func(inErr error) {
		err = errors.Join(inErr, shutdown(ctx))
	}

	otel.SetTextMapPropagator(newPropagator())

	tracerProvider, err := newTracerProvider(ctx, otlp)
	if err != nil {
		handleErr(err)
		return
	}
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	meterProvider, err := newMeterProvider(ctx, otlp)
	if err != nil {
		handleErr(err)
		return
	}
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	loggerProvider, err := newLoggerProvider(ctx, otlp)
	if err != nil {
		handleErr(err)
		return
	}
	shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)
	global.SetLoggerProvider(loggerProvider)

	return
}

func newPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

func newTracerProvider(ctx context.Context, otlp bool) (*trace.TracerProvider, error) {
	if !otlp {
		return trace.NewTracerProvider(), nil
	}

	traceExporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, err
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(traceExporter, trace.WithBatchTimeout(5*time.Second)),
	), nil
}

func newMeterProvider(ctx context.Context, otlp bool) (*metric.MeterProvider, error) {
	if !otlp {
		return metric.NewMeterProvider(), nil
	}

	metricExporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return nil, err
	}

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter, metric.WithInterval(time.Minute))),
	), nil
}

func newLoggerProvider(ctx context.Context, otlp bool) (*log.LoggerProvider, error) {
	if !otlp {
		return log.NewLoggerProvider(), nil
	}

	logExporter, err := otlploggrpc.New(ctx)
	if err != nil {
		return nil, err
	}

	return log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(logExporter)),
	), nil
}
