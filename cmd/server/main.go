package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/VisitAudit/config"
	appmodel "github.com/sifan077/VisitAudit/internal/app/model"
	apprepository "github.com/sifan077/VisitAudit/internal/app/repository"
	appsecret "github.com/sifan077/VisitAudit/internal/app/secret"
	appserver "github.com/sifan077/VisitAudit/internal/app/server"
	appservice "github.com/sifan077/VisitAudit/internal/app/service"
	inthttp "github.com/sifan077/VisitAudit/internal/http/handler"
	httpUtil "github.com/sifan077/VisitAudit/internal/http/util"
	infraBadger "github.com/sifan077/VisitAudit/internal/infra/badger"
	"github.com/sifan077/VisitAudit/internal/infra/logger"
	infraNATS "github.com/sifan077/VisitAudit/internal/infra/nats"
	infraPostgres "github.com/sifan077/VisitAudit/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/VisitAudit/internal/infra/prometheus"
	infraRedis "github.com/sifan077/VisitAudit/internal/infra/redis"
	infraSMTP "github.com/sifan077/VisitAudit/internal/infra/smtp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.MustInit(logger.ConfigFromEnv())
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("env", cfg.Server.Env),
		zap.String("addr", cfg.Server.Addr),
		zap.String("sink", cfg.Sink.Driver),
		zap.String("secrets_provider", cfg.Auth.SecretsProvider),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := infraPrometheus.NewMetrics(registry)

	checks := make(map[string]inthttp.ReadinessCheck)

	var redisClient *redis.Client
	if cfg.Sink.Driver == "redis" || cfg.Auth.SecretsProvider == "redis" {
		redisClient, err = infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		log.Info("Connected to Redis successfully")
	}

	sink, closeSink := openSink(ctx, cfg, log, redisClient, checks)
	defer closeSink()

	repo := apprepository.NewBreakerVisitRepository(sink, apprepository.BreakerSettings{
		Name:        "visit-sink-" + cfg.Sink.Driver,
		MaxFailures: cfg.Sink.BreakerMaxFailures,
		OpenTimeout: cfg.Sink.BreakerOpenTimeout,
		Logger:      log,
	})

	var provider appsecret.Provider
	switch cfg.Auth.SecretsProvider {
	case "redis":
		provider = appsecret.NewRedisProvider(redisClient, cfg.Auth.SecretsKey)
	default:
		static, err := appsecret.NewStaticProvider(cfg.Auth)
		if err != nil {
			log.Fatal("Failed to build static secret provider", zap.Error(err))
		}
		provider = static
	}
	secrets := appsecret.NewCachedProvider(provider, cfg.Auth.SecretsRefresh, log)
	if err := secrets.Refresh(ctx); err != nil {
		log.Warn("Admin secrets unavailable at startup; logins will fail until configured", zap.Error(err))
	}

	refresher := appservice.NewSecretRefresher(log, secrets, cfg.Auth.SecretsRefresh)
	refresher.Start()
	defer refresher.Stop()

	var publisher appservice.VisitEventPublisher
	if cfg.NATS.Enabled {
		natsConn, js, err := infraNATS.Connect(cfg.NATS)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()

		if err := infraNATS.EnsureStream(js, appservice.VisitStreamConfig()); err != nil {
			log.Fatal("Failed to ensure visit stream", zap.Error(err))
		}
		publisher = appservice.NewVisitPublisher(js)
		checks["nats"] = func(context.Context) error {
			if natsConn.Status() != nats.CONNECTED {
				return errors.New("nats: " + natsConn.Status().String())
			}
			return nil
		}

		if cfg.NATS.AuditConsumer {
			consumer := appservice.NewVisitConsumer(js, log.Named(logger.VisitName))
			if err := consumer.Start(ctx); err != nil {
				log.Fatal("Failed to start visit consumer", zap.Error(err))
			}
		}
		log.Info("Connected to NATS successfully", zap.String("url", infraNATS.URL(cfg.NATS)))
	}

	var notifier appservice.LoginNotifier
	if recipients := appservice.SplitRecipients(cfg.SMTP.AlertTo); len(recipients) > 0 {
		mailer := infraSMTP.NewMailer(cfg.SMTP)
		if mailer.Configured() {
			notifier = appservice.NewMailLoginNotifier(mailer, recipients)
		} else {
			log.Warn("Login alerts requested but SMTP is not configured")
		}
	}

	visitService := appservice.NewVisitService(appservice.VisitServiceDeps{
		Repo:      repo,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    log,
	})
	authService := appservice.NewAuthService(appservice.AuthDeps{
		Secrets:     secrets,
		Tokens:      httpUtil.NewTokenSigner(secrets, cfg.Auth.TokenTTL),
		Notifier:    notifier,
		Metrics:     metrics,
		AuditLogger: logger.Audit(),
	})

	if cfg.Prometheus.Port > 0 {
		promServer := infraPrometheus.NewServer(cfg.Prometheus, registry)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Prometheus metrics server disabled")
	}

	server := appserver.New(appserver.Dependencies{
		Logger:       log,
		Metrics:      metrics,
		Visits:       visitService,
		Auth:         authService,
		Analytics:    appservice.NewAnalyticsService(repo),
		Checks:       checks,
		SiteName:     cfg.Server.SiteName,
		CORSOrigins:  cfg.Server.CORSOrigins,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Fiber shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting HTTP server", zap.String("addr", cfg.Server.Addr))
	if err := server.Listen(cfg.Server.Addr); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
	log.Info("HTTP server stopped")
}

// openSink builds the configured visit sink and returns a release func for its resources.
func openSink(ctx context.Context, cfg *config.Config, log *zap.Logger, redisClient *redis.Client, checks map[string]inthttp.ReadinessCheck) (apprepository.VisitRepository, func()) {
	switch cfg.Sink.Driver {
	case "memory":
		return apprepository.NewMemoryVisitRepository(), func() {}

	case "postgres":
		gormDB, err := infraPostgres.NewGorm(cfg.Postgres, log)
		if err != nil {
			log.Fatal("Failed to open GORM connection", zap.Error(err))
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
		}
		if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.VisitRecord{}); err != nil {
			log.Fatal("Failed to run database migrations", zap.Error(err))
		}

		pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			log.Fatal("Failed to connect to Postgres", zap.Error(err))
		}
		checks["postgres"] = func(ctx context.Context) error { return infraPostgres.Ready(ctx, pool) }
		log.Info("Connected to Postgres successfully")

		return apprepository.NewGormVisitRepository(gormDB), func() {
			pool.Close()
			_ = sqlDB.Close()
		}

	case "redis":
		return apprepository.NewRedisVisitRepository(redisClient, cfg.Redis.VisitsKey), func() {}

	case "badger":
		db, err := infraBadger.Open(cfg.Badger, log)
		if err != nil {
			log.Fatal("Failed to open Badger", zap.Error(err))
		}
		checks["badger"] = func(context.Context) error {
			if db.IsClosed() {
				return errors.New("badger: database closed")
			}
			return nil
		}
		return apprepository.NewBadgerVisitRepository(db), func() {
			if err := db.Close(); err != nil {
				log.Warn("Failed to close Badger", zap.Error(err))
			}
		}

	default:
		return apprepository.NewLogVisitRepository(log.Named(logger.VisitName)), func() {}
	}
}
