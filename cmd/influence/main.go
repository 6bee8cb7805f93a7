package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gauge-analytics/influence/internal/api"
	"github.com/gauge-analytics/influence/internal/bus"
	"github.com/gauge-analytics/influence/internal/cache"
	"github.com/gauge-analytics/influence/internal/domain"
	"github.com/gauge-analytics/influence/internal/loader"
	"github.com/gauge-analytics/influence/internal/source"
	"github.com/gauge-analytics/influence/internal/view"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg := configFromEnv()
	initLogger(cfg.Logging)

	slog.Info("starting influence",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"source", cfg.Source.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	src, err := source.New(cfg.Source)
	if err != nil {
		slog.Error("failed to initialize data source", "error", err)
		os.Exit(1)
	}
	defer src.Close()
	slog.Info("data source initialized", "driver", cfg.Source.Driver)

	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	state := view.NewState()

	// Audit log for every lifecycle event on the bus.
	for _, topic := range []string{
		domain.TopicResourceLoaded,
		domain.TopicFiltersChanged,
		domain.TopicSortChanged,
	} {
		if _, err := busImpl.Subscribe(ctx, topic, logEvent); err != nil {
			slog.Error("failed to subscribe", "topic", topic, "error", err)
			os.Exit(1)
		}
	}

	// Load the dataset once per session. Partial failure is tolerated: a
	// resource that fails stays empty and every derivation degrades to
	// empty/zero.
	ld := loader.New(src, state, busImpl)
	if err := ld.Load(ctx); err != nil {
		slog.Warn("dataset loaded with errors", "error", err)
	}
	slog.Info("dataset ready",
		"total_users", state.TotalUsers(),
		"total_interactions", state.TotalInteractions(),
	)

	srv := api.NewServer(cfg.Server, state, cacheImpl, busImpl, src, Version)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("influence is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)
	printBanner(cfg, Version)

	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("influence shutdown complete")
}

func logEvent(ctx context.Context, msg *domain.Message) error {
	slog.Info("event",
		"topic", msg.Topic,
		"payload", string(msg.Payload),
	)
	return nil
}

func initLogger(cfg domain.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// configFromEnv builds the configuration from defaults plus INFLUENCE_*
// environment overrides.
func configFromEnv() *domain.Config {
	cfg := domain.DefaultConfig()

	if v := os.Getenv("INFLUENCE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("INFLUENCE_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("INFLUENCE_SOURCE"); v != "" {
		cfg.Source.Driver = v
	}
	if v := os.Getenv("INFLUENCE_ENDPOINT"); v != "" {
		cfg.Source.Endpoint = v
	}
	if v := os.Getenv("INFLUENCE_DATA_DIR"); v != "" {
		cfg.Source.Dir = v
	}
	if v := os.Getenv("INFLUENCE_SQLITE_PATH"); v != "" {
		cfg.Source.SQLitePath = v
	}
	if v := os.Getenv("INFLUENCE_POSTGRES_HOST"); v != "" {
		cfg.Source.PostgresHost = v
	}
	if v := os.Getenv("INFLUENCE_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Source.PostgresPort = port
		}
	}
	if v := os.Getenv("INFLUENCE_POSTGRES_DB"); v != "" {
		cfg.Source.PostgresDB = v
	}
	if v := os.Getenv("INFLUENCE_POSTGRES_USER"); v != "" {
		cfg.Source.PostgresUser = v
	}
	if v := os.Getenv("INFLUENCE_POSTGRES_PASSWORD"); v != "" {
		cfg.Source.PostgresPassword = v
	}

	if v := os.Getenv("INFLUENCE_CACHE"); v != "" {
		cfg.Cache.Type = v
	}
	if v := os.Getenv("INFLUENCE_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("INFLUENCE_REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}

	if os.Getenv("INFLUENCE_DEBUG") == "true" {
		cfg.Logging.Level = "debug"
	}
	if v := os.Getenv("INFLUENCE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	return cfg
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  influence - who moves the needle for your brands")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Source:   %s\n", cfg.Source.Driver)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    GET  /view                                - Full view-model snapshot")
	fmt.Println("    GET  /users/influential                   - Ranked influential users")
	fmt.Println("    GET  /users/filtered                      - Users passing the demographic filters")
	fmt.Println("    GET  /interactions/filtered               - Interactions passing all filters")
	fmt.Println("    GET  /brands, /types                      - Entity collections with activation flags")
	fmt.Println("    POST /filters/{category}/{value}/toggle   - Flip a demographic toggle")
	fmt.Println("    POST /brands/{id}/toggle                  - Flip a brand's activation")
	fmt.Println("    POST /types/{id}/toggle                   - Flip an interaction type's activation")
	fmt.Println("    PUT  /sort                                - Change the ranking sort")
	fmt.Println("    PUT  /segment                             - Set an ad-hoc user segment")
	fmt.Println("    GET  /export/{csv|json|xlsx}              - Download the ranked list")
	fmt.Println("    GET  /health, /ready                      - Probes")
	fmt.Println()
}
