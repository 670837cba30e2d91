package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"addressme/auth"
	"addressme/config"
	"addressme/db"
	"addressme/logging"
	"addressme/metrics"
	"addressme/migrations"
	"addressme/notify"
	"addressme/scheduling"
	"addressme/verification"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("addressme: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	var (
		store      verification.Store
		directory  auth.UserStore
		interviews scheduling.Store
		readiness  func(context.Context) error
		scheduler  *notify.Scheduler
	)

	if cfg.InMemory() {
		static, err := auth.ParseStaticDirectory(cfg.StaticActors)
		if err != nil {
			return err
		}
		store = verification.NewMemoryStore()
		directory = auth.NewMemoryDirectory(static)
		interviews = scheduling.NewMemoryStore()
		logger.Warn("DATABASE_URL not set; using in-memory store and static directory",
			zap.Int("static_actors", len(static)))
	} else {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("bootstrap database pool: %w", err)
		}
		defer pool.Close()

		if cfg.AutoMigrate {
			applied, err := migrations.Apply(ctx, pool)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("schema migrated", zap.Strings("applied", applied))
		}

		store = verification.NewPostgresStore(pool)
		directory = auth.NewDirectory(pool)
		interviews = scheduling.NewPostgresStore(pool)
		readiness = pool.Ping

		publisher, closePublisher, err := newPublisher(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closePublisher()

		relay := notify.NewRelay(notify.NewPostgresOutbox(pool, notify.DefaultMaxAttempts), publisher, logger.Named("relay")).
			WithBatchSize(cfg.RelayBatchSize).
			WithRecorder(m)
		scheduler = notify.NewScheduler(relay, cfg.RelayInterval, logger.Named("relay"))
	}

	users := auth.NewOnboarding(directory, logger.Named("auth"))
	if err := users.Bootstrap(ctx, cfg.BootstrapVerifiers); err != nil {
		return fmt.Errorf("bootstrap verifiers: %w", err)
	}

	svc := verification.NewService(store, users, logger.Named("verification")).WithRecorder(m)
	server := NewServer(svc, users, auth.NewTokenVerifier(cfg.JWTSecret), logger.Named("http")).
		WithScheduling(scheduling.NewService(interviews, svc, users, logger.Named("scheduling"))).
		WithMetrics(m, prometheus.DefaultGatherer).
		WithReadiness(readiness)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if scheduler != nil {
		if err := scheduler.Start(gctx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down http server")
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Publisher, func(), error) {
	switch cfg.NotifyBackend {
	case config.BackendRedis:
		client, err := notify.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return notify.NewRedisPublisher(client, "addressme:"), func() { _ = client.Close() }, nil
	case config.BackendKafka:
		client, err := notify.NewKafkaClient(cfg.KafkaBrokers)
		if err != nil {
			return nil, nil, err
		}
		return notify.NewKafkaPublisher(client), client.Close, nil
	default:
		return notify.NewLogPublisher(logger.Named("events")), func() {}, nil
	}
}
