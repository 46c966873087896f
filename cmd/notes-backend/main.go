package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pribylovaa/notes-backend/internal/app"
	"github.com/pribylovaa/notes-backend/internal/cache"
	"github.com/pribylovaa/notes-backend/internal/config"
	"github.com/pribylovaa/notes-backend/internal/metrics"
	"github.com/pribylovaa/notes-backend/internal/pkg/password"
	"github.com/pribylovaa/notes-backend/internal/pkg/tokens"
	"github.com/pribylovaa/notes-backend/internal/service"
	"github.com/pribylovaa/notes-backend/internal/storage/postgres"
	"github.com/pribylovaa/notes-backend/internal/transport/rest"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting application", slog.String("env", cfg.Env))

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		return err
	}
	defer str.Close()
	log.Info("postgres_connected")

	if cfg.DB.AutoMigrate {
		if err := str.Migrate(ctx); err != nil {
			return err
		}
		log.Info("migrations_applied")
	}

	profiles := setupCache(ctx, cfg, log)
	defer func() { _ = profiles.Close() }()

	issuer, err := tokens.New(cfg.Auth)
	if err != nil {
		return err
	}

	srvc := service.New(str, password.New(cfg.Auth.BcryptCost, cfg.Auth.HashConcurrency), issuer, cfg.Auth)
	srvc.SetCache(profiles, cfg.Cache.TTL)
	log.Info("service_initialized", slog.Bool("rotate_refresh_tokens", cfg.Auth.RotateRefreshTokens))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	h := rest.NewHandler(srvc, rest.Options{Cookie: cfg.Cookie, Prod: cfg.IsProd()}, m)
	router := rest.NewRouter(h, log, m, cfg.Timeouts.Request)

	a := app.New(cfg, log, router, reg, map[string]app.Pinger{
		"postgres": str,
		"cache":    profiles,
	})

	return a.Run(ctx)
}

// setupCache выбирает Redis, если он сконфигурирован и доступен, иначе LRU в памяти.
func setupCache(ctx context.Context, cfg *config.Config, log *slog.Logger) cache.Cache {
	if cfg.Redis.RedisURL != "" {
		rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		c, err := cache.NewRedis(rctx, cfg.Redis.RedisURL, cfg.Redis.Prefix)
		if err == nil {
			log.Info("redis_connected")
			return c
		}

		log.Warn("redis_unavailable_fallback_lru", slog.String("err", err.Error()))
	}

	return cache.NewLRU(cfg.Cache.Size, cfg.Cache.TTL)
}

// setupLogger настраивает slog по окружению; level, если задан, переопределяет уровень.
func setupLogger(env, level string) *slog.Logger {
	lvl := slog.LevelDebug
	if env == config.EnvProd {
		lvl = slog.LevelInfo
	}

	if level != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(strings.ToUpper(level))); err == nil {
			lvl = parsed
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}

	switch env {
	case config.EnvDev, config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
}
