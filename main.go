package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/datasets"
	"github.com/chashi-bhai/server/internal/agent/graph"
	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/internal/agent/repo"
	"github.com/chashi-bhai/server/internal/api"
	"github.com/chashi-bhai/server/internal/core"
	logx "github.com/chashi-bhai/server/pkg/logger"
	pkgredis "github.com/chashi-bhai/server/pkg/redis"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

// shutdownTimeout bounds how long in-flight chats may finish on SIGTERM.
const shutdownTimeout = 20 * time.Second

// AppConfig defines all configurable parameters of the server, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Runtime RuntimeConfig

	// Infrastructure
	Server    model.ServerConfig
	Redis     pkgredis.Config
	Telemetry telemetry.Config
	Cache     model.CacheConfig

	// Agent configs
	Response     model.ResponseModelConfig
	Conversation model.ConversationConfig
	Location     model.LocationConfig
	Datasets     model.DatasetsConfig
	Translation  model.TranslationConfig
	Retrieval    model.RetrievalConfig
}

type RuntimeConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
}

// loadConfig processes each section without a prefix, so keys read exactly
// as their tags; Redis keys carry the REDIS_ prefix.
func loadConfig() (*AppConfig, error) {
	var c AppConfig
	sections := []any{
		&c.Runtime, &c.Server, &c.Telemetry, &c.Cache, &c.Response, &c.Conversation,
		&c.Location, &c.Datasets, &c.Translation, &c.Retrieval,
	}
	for _, s := range sections {
		if err := envconfig.Process("", s); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("redis", &c.Redis); err != nil {
		return nil, err
	}
	return &c, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Could not load .env file: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to process environment config: %v\n", err)
		os.Exit(1)
	}
	env := core.ParseEnvironment(cfg.Runtime.Environment)
	logx.Init(logx.LoggerOpts{Environment: env, Level: cfg.Runtime.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logx.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func run(ctx context.Context, cfg *AppConfig) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logx.Warn().Err(err).Msg("Error flushing traces")
		}
	}()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	var (
		store    cache.Store
		userRepo model.UserContextRepository
	)
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New()
		if err != nil {
			return fmt.Errorf("initialise redis client: %w", err)
		}
		defer rdb.Close()
		store = cache.NewRedisStore(rdb, cfg.Cache.RedisMaxTTL, metrics)
		userRepo = repo.NewRedisUserContextRepository(rdb, cfg.Conversation.TTL)
		logx.Info().Msg("Connected to Redis successfully")
	} else {
		mem, err := cache.NewMemoryStore(cfg.Cache.MaxEntries, cache.WithMetrics(metrics))
		if err != nil {
			return fmt.Errorf("create memory cache: %w", err)
		}
		store = mem
		userRepo = repo.NewMemoryUserContextRepository()
		logx.Info().Int("max_entries", cfg.Cache.MaxEntries).Msg("Redis not configured, using in-memory stores")
	}

	pipeline, err := graph.BuildResponseGraph(ctx, graph.Config{
		ResponseModel:   cfg.Response,
		Conversation:    cfg.Conversation,
		Location:        cfg.Location,
		Datasets:        cfg.Datasets,
		Translation:     cfg.Translation,
		Retrieval:       cfg.Retrieval,
		Store:           store,
		UserContextRepo: userRepo,
		Metrics:         metrics,
	})
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	opts := api.Options{
		Chat:  pipeline,
		Probe: datasets.NewPower(cfg.Datasets),
		Debug: api.DebugInfo{
			GroqAPIKey: cfg.Response.GroqAPIKey,
			Provider:   cfg.Response.Provider,
			Mode:       pipeline.Mode().String(),
			Host:       cfg.Server.Host,
			Port:       cfg.Server.Port,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Metrics:        metrics,
	}
	if r := pipeline.Resolver(); r != nil {
		opts.Locator = r.IP()
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           api.NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().
			Str("addr", srv.Addr).
			Str("mode", pipeline.Mode().String()).
			Msg("Chashi Bhai server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logx.Info().Msg("Shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
