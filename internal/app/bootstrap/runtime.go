package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MrEthical07/pinauth"
	"github.com/MrEthical07/pinauth/credential"
	"github.com/MrEthical07/pinauth/internal/events"
	"github.com/MrEthical07/pinauth/internal/httpapi"
	"github.com/MrEthical07/pinauth/internal/postgres"
	promexp "github.com/MrEthical07/pinauth/metrics/export/prometheus"
	"github.com/MrEthical07/pinauth/notify"
	"github.com/MrEthical07/pinauth/session"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	engine     *pinauth.Engine
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	sweeper    *sessionSweeper
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("bootstrapping pinauth service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort, "session_store", cfg.SessionStore)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := connectRedis(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	closeStores := func() {
		_ = redisClient.Close()
		_ = sqlDB.Close()
	}

	engineCfg := cfg.EngineConfig()
	builder := pinauth.New().
		WithConfig(engineCfg).
		WithRedis(redisClient).
		WithOperatorProvider(postgres.NewOperatorRepository(db)).
		WithLogger(logger)

	if cfg.CentralSystemEnabled {
		validator, err := credential.NewHTTPValidator(credential.HTTPValidatorConfig{
			BaseURL:    cfg.CentralSystemURL,
			APIKey:     cfg.CentralSystemAPIKey,
			HTTPClient: &http.Client{Timeout: cfg.CentralSystemTimeout},
		})
		if err != nil {
			closeStores()
			return nil, fmt.Errorf("init credential validator: %w", err)
		}
		builder = builder.WithCredentialValidator(validator)
	} else {
		logger.Warn("central system credential check disabled")
	}

	whatsapp, err := notify.NewWhatsAppChannel(notify.WhatsAppConfig{
		Enabled:    cfg.TwilioEnabled,
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioWhatsAppFrom,
		HTTPClient: &http.Client{Timeout: cfg.NotificationTimeout},
	})
	if err != nil {
		closeStores()
		return nil, fmt.Errorf("init whatsapp channel: %w", err)
	}
	email, err := notify.NewEmailChannel(notify.EmailConfig{
		Enabled:    cfg.SendGridEnabled,
		APIKey:     cfg.SendGridAPIKey,
		FromEmail:  cfg.SendGridFromEmail,
		FromName:   cfg.SendGridFromName,
		HTTPClient: &http.Client{Timeout: cfg.NotificationTimeout},
	})
	if err != nil {
		closeStores()
		return nil, fmt.Errorf("init email channel: %w", err)
	}
	builder = builder.WithNotifier(whatsapp, email)

	sinks := []pinauth.AuditSink{postgres.NewAuditSink(db)}
	var kafkaSink *events.KafkaAuditSink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err = events.NewKafkaAuditSink(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			closeStores()
			return nil, fmt.Errorf("init kafka audit sink: %w", err)
		}
		sinks = append(sinks, kafkaSink)
	}
	builder = builder.WithAuditSink(pinauth.NewMultiSink(sinks...))

	if cfg.SessionStore == "postgres" {
		builder = builder.WithSessionRegistry(session.NewGormRegistry(db))
	}

	engine, err := builder.Build()
	if err != nil {
		if kafkaSink != nil {
			_ = kafkaSink.Close()
		}
		closeStores()
		return nil, fmt.Errorf("build engine: %w", err)
	}
	for _, w := range engineCfg.Lint().BySeverity(pinauth.LintWarn) {
		logger.Warn("config lint", "code", w.Code, "severity", w.Severity.String(), "message", w.Message)
	}

	var telemetry *otelMetrics
	if cfg.OTelMetricsEnabled {
		telemetry, err = startOTelMetrics(ctx, cfg, engine)
		if err != nil {
			engine.Close()
			if kafkaSink != nil {
				_ = kafkaSink.Close()
			}
			closeStores()
			return nil, fmt.Errorf("init otel metrics: %w", err)
		}
		logger.Info("otel metrics enabled", "endpoint", cfg.OTelEndpoint, "interval", cfg.OTelExportInterval.String())
	}

	handler := httpapi.NewHandler(engine, logger)
	router := httpapi.NewRouter(handler, httpapi.RouterOptions{
		Metrics:    promexp.NewPrometheusExporter(engine).Handler(),
		TrustProxy: cfg.TrustProxy,
		Ready: func(ctx context.Context) error {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return postgres.Ping(ctx, db)
		},
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = telemetry.Shutdown(ctx)
		engine.Close()
		if kafkaSink != nil {
			_ = kafkaSink.Close()
		}
		closeStores()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		engine:     engine,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		sweeper:    newSessionSweeper(logger, engine.PurgeExpiredSessions, cfg.SessionSweepInterval),
		cleanupFn: func(ctx context.Context) {
			healthSrv.Shutdown()
			if err := telemetry.Shutdown(ctx); err != nil {
				logger.Warn("otel metrics shutdown", "error", err)
			}
			// Drains queued audit events before the sinks go away.
			engine.Close()
			if kafkaSink != nil {
				_ = kafkaSink.Close()
			}
			closeStores()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go func() {
		_ = r.sweeper.Run(sweepCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}
	cancelSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return runErr
}
