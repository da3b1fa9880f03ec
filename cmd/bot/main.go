package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hexlibris/bookbot/internal/bot"
	"github.com/hexlibris/bookbot/internal/catalog"
	"github.com/hexlibris/bookbot/internal/database"
	"github.com/hexlibris/bookbot/internal/flow"
	"github.com/hexlibris/bookbot/internal/health"
	"github.com/hexlibris/bookbot/internal/mailer"
	"github.com/hexlibris/bookbot/internal/repository"
	"github.com/hexlibris/bookbot/internal/store"
	"github.com/hexlibris/bookbot/pkg/config"
	"github.com/hexlibris/bookbot/pkg/graceful"
	"github.com/hexlibris/bookbot/pkg/logger"
	"github.com/hexlibris/bookbot/pkg/metrics"
	"github.com/hexlibris/bookbot/pkg/redis"

	_ "github.com/lib/pq"
)

const migrationsDir = "migrations"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("bookbot terminated", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, level := logger.New(*cfg)
	slog.SetDefault(log)

	log.Info("starting bookbot",
		slog.String("env", cfg.AppEnv),
		slog.String("http_port", cfg.Server.Port),
		slog.String("log_level", cfg.Logger.Level),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			return fmt.Errorf("initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			log.Error("error closing redis client", slog.Any("error", cerr))
		}
	}()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database", slog.Any("error", cerr))
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Info("database migrations applied")

	profiles := store.NewRedisProfileStore(rdb.Client, log)
	conversations := store.NewRedisConversationStore(rdb.Client, log, cfg.Dialog.ConversationTTL)

	books := catalog.New(cfg.Catalog, log)
	mail := mailer.New(cfg.Mailer, log)
	orders := repository.NewOrderRepository(db, log)

	engine := flow.NewEngine(books)
	orchestrator := bot.NewOrchestrator(engine, profiles, conversations, mail, orders, log)

	b, err := bot.New(*cfg, log, orchestrator, orders)
	if err != nil {
		return fmt.Errorf("initialize bot: %w", err)
	}

	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(rdb.Client))
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", healthHandler(checker))

	srv := graceful.NewServer(log, &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}, cfg.Server.ShutdownTimeout)

	go metrics.NewStepCollector(conversations).Run(ctx)

	go func() {
		watchErr := config.Watch(ctx, config.ConfigPath(cfg.AppEnv), log, func() {
			if rerr := v.ReadInConfig(); rerr != nil {
				log.Error("failed to reload config", slog.Any("error", rerr))
				return
			}

			newLevel := logger.ParseLevel(v.GetString("logger.level"))
			level.Set(newLevel)
			log.Info("log level updated", slog.String("level", newLevel.String()))
		})
		if watchErr != nil {
			log.Error("config watcher stopped", slog.Any("error", watchErr))
		}
	}()

	go b.Start()
	go func() {
		<-ctx.Done()
		b.Stop()
	}()

	return srv.ListenAndServe(ctx)
}

// healthHandler reports every registered check; any failure yields 503.
func healthHandler(checker *health.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := checker.Check(r.Context())

		status := http.StatusOK
		for _, result := range results {
			if result != "OK" {
				status = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(results)
	}
}
