package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modernblog/bloghub/internal/auth"
	"github.com/modernblog/bloghub/internal/config"
	"github.com/modernblog/bloghub/internal/db"
	httpx "github.com/modernblog/bloghub/internal/http"
	"github.com/modernblog/bloghub/internal/http/middlewares"
	"github.com/modernblog/bloghub/internal/notifications"
	"github.com/modernblog/bloghub/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	// tracing is opt-in via OTEL_EXPORTER_OTLP_ENDPOINT
	tracing := cfg.OTLPEndpoint != ""

	if tracing {
		shutdownTracer, err := observability.InitTracer(context.Background(), "bloghub-api", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()

			if err := shutdownTracer(ctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(registry)

	// database
	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("database connection failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	migrateCtx, migrateCancel := config.WithTimeout(30 * time.Second)
	defer migrateCancel()

	err = db.RunMigrations(migrateCtx, cfg.DBURL)

	if err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	err = db.EnsureAdminUser(migrateCtx, pool, cfg)

	if err != nil {
		log.Error("admin bootstrap failed", "err", err)
		os.Exit(1)
	}

	// rate limit counters live in redis when configured, in memory otherwise
	var limiterStore middlewares.LimiterStore = middlewares.NewMemoryStore()

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, pingCancel := config.WithTimeout(3 * time.Second)
		err = rdb.Ping(pingCtx).Err()
		pingCancel()

		if err != nil {
			log.Error("redis connection failed", "err", err)
			os.Exit(1)
		}

		defer rdb.Close()

		limiterStore = middlewares.NewRedisStore(rdb, "bloghub:rl")
		log.Info("rate limiting via redis", "addr", cfg.RedisAddr)
	}

	// mail: SMTP when configured, log-only otherwise; always behind the
	// circuit breaker and the metrics wrapper
	var base notifications.Notifier

	if cfg.SMTPHost != "" {
		base = notifications.NewSMTPNotifier(notifications.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
		})
	} else {
		log.Warn("SMTP_HOST not set, emails will only be logged")
		base = notifications.NewLogNotifier()
	}

	notifier := notifications.NewInstrumentedNotifier(
		notifications.NewProtectedNotifier(base, notifications.ProtectedNotifierConfig{}),
		prom,
	)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTExpires)

	// set up routers
	router := httpx.NewRouter(httpx.RouterDeps{
		Log:          log,
		Pool:         pool,
		Cfg:          cfg,
		JWT:          jwtManager,
		Notifier:     notifier,
		Prom:         prom,
		Registry:     registry,
		LimiterStore: limiterStore,
		Tracing:      tracing,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctxTimeOut := 10 * time.Second

		ctx, cancel := config.WithTimeout(ctxTimeOut)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
