// Package chat parses chat command configuration and composes the service.
package chat

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	entrypoint "github.com/louisbranch/chatfeed/internal/platform/cmd"
	"github.com/louisbranch/chatfeed/internal/platform/logging"
	chatservice "github.com/louisbranch/chatfeed/internal/services/chat"
	"github.com/louisbranch/chatfeed/internal/services/chat/feed"
	"github.com/louisbranch/chatfeed/internal/services/chat/identity"
	"github.com/louisbranch/chatfeed/internal/services/chat/platform/httpx"
	"github.com/louisbranch/chatfeed/internal/services/chat/platform/requestmeta"
	"github.com/louisbranch/chatfeed/internal/services/chat/send"
	"github.com/louisbranch/chatfeed/internal/services/chat/source"
	"github.com/louisbranch/chatfeed/internal/services/chat/storage"
	"github.com/louisbranch/chatfeed/internal/services/chat/storage/memory"
	"github.com/louisbranch/chatfeed/internal/services/chat/storage/sqlite"
	"github.com/louisbranch/chatfeed/internal/services/chat/tag"
)

// Runtime environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds chat command configuration.
type Config struct {
	HTTPAddr   string `env:"CHATFEED_HTTP_ADDR" envDefault:"localhost:8090"`
	BackendURL string `env:"BE_API_URL"`
	AuthToken  string `env:"AUTH_TOKEN"`
	// Env falls back to NODE_ENV, then development.
	Env     string `env:"CHATFEED_ENV"`
	NodeEnv string `env:"NODE_ENV"`
	Version string `env:"CHATFEED_VERSION" envDefault:"dev"`

	PollInterval time.Duration `env:"CHATFEED_POLL_INTERVAL" envDefault:"5s"`
	CachePath    string        `env:"CHATFEED_CACHE_PATH"`
	CacheTTL     time.Duration `env:"CHATFEED_CACHE_TTL"     envDefault:"30s"`
	RedisURL     string        `env:"CHATFEED_REDIS_URL"`

	TrustForwardedProto bool    `env:"CHATFEED_TRUST_FORWARDED_PROTO"`
	SendRate            float64 `env:"CHATFEED_SEND_RATE"  envDefault:"2"`
	SendBurst           int     `env:"CHATFEED_SEND_BURST" envDefault:"5"`
	LogLevel            string  `env:"CHATFEED_LOG_LEVEL"  envDefault:"info"`
}

// ParseConfig parses environment and flags into a validated Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "chat HTTP listen address")
	fs.StringVar(&cfg.BackendURL, "backend-url", cfg.BackendURL, "message backend base URL")
	fs.StringVar(&cfg.Env, "env", cfg.Env, "runtime environment (development, production, test)")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "background invalidation period")
	fs.StringVar(&cfg.CachePath, "cache-path", cfg.CachePath, "SQLite cache path; empty keeps the cache in memory")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "upper bound on cached read age")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for shared invalidation tags")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Environment returns the resolved runtime environment.
func (c Config) Environment() string {
	for _, value := range []string{c.Env, c.NodeEnv} {
		if value = strings.ToLower(strings.TrimSpace(value)); value != "" {
			return value
		}
	}
	return EnvDevelopment
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("CHATFEED_HTTP_ADDR is required"))
	}
	if err := validateBackendURL(c.BackendURL); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.AuthToken) == "" {
		errs = append(errs, errors.New("AUTH_TOKEN is required"))
	}
	switch env := c.Environment(); env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("environment must be development, production or test, got %q", env))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("CHATFEED_POLL_INTERVAL must be positive, got %s", c.PollInterval))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("CHATFEED_CACHE_TTL must not be negative, got %s", c.CacheTTL))
	}
	if c.SendRate < 0 {
		errs = append(errs, fmt.Errorf("CHATFEED_SEND_RATE must not be negative, got %v", c.SendRate))
	}
	if c.SendRate > 0 && c.SendBurst < 1 {
		errs = append(errs, fmt.Errorf("CHATFEED_SEND_BURST must be at least 1, got %d", c.SendBurst))
	}
	return errors.Join(errs...)
}

func validateBackendURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("BE_API_URL is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("BE_API_URL is not a valid URL: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("BE_API_URL must be an absolute http(s) URL, got %q", raw)
	}
	return nil
}

// Run builds the chat service and serves it until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceChat, func(ctx context.Context) error {
		logger := logging.New(cfg.Environment(), cfg.LogLevel, os.Stderr).
			With().Str("service", entrypoint.ServiceChat).Logger()
		if err := serve(ctx, cfg, logger); err != nil {
			return fmt.Errorf("serve chat: %w", err)
		}
		return nil
	})
}

func serve(ctx context.Context, cfg Config, logger zerolog.Logger) error {
	store, err := openCacheStore(ctx, cfg.CachePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("close cache store")
		}
	}()

	checks := map[string]chatservice.Pinger{"cache": store}
	tags, closeTags, err := openRegistry(ctx, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer closeTags()
	if pinger, ok := tags.(chatservice.Pinger); ok {
		checks["tags"] = pinger
	}

	client, err := source.NewClient(cfg.BackendURL, cfg.AuthToken)
	if err != nil {
		return fmt.Errorf("build message backend client: %w", err)
	}

	syncer := feed.NewSynchronizer(client, tags, store,
		feed.WithCacheTTL(cfg.CacheTTL),
		feed.WithLogger(logger),
	)
	poller := feed.NewPoller(tags, cfg.PollInterval, logger)
	stopPolling, pollerDone := poller.Start(ctx)
	defer func() {
		stopPolling()
		<-pollerDone
	}()

	policy := requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto}
	server, err := chatservice.NewServer(ctx, chatservice.Config{
		HTTPAddr:     cfg.HTTPAddr,
		Version:      cfg.Version,
		Feed:         syncer,
		Sender:       send.NewAction(client, tags, logger),
		Tags:         tags,
		Identity:     identity.NewStore(policy, cfg.Environment() == EnvProduction),
		HealthChecks: checks,
		Logger:       logger,
		SchemePolicy: policy,
		SendLimiter:  httpx.NewLimiter(cfg.SendRate, cfg.SendBurst),
		RefreshEvery: cfg.PollInterval,
	})
	if err != nil {
		return err
	}
	defer server.Close()

	logger.Info().
		Str("env", cfg.Environment()).
		Dur("poll_interval", poller.Interval()).
		Bool("sqlite_cache", strings.TrimSpace(cfg.CachePath) != "").
		Bool("redis_tags", strings.TrimSpace(cfg.RedisURL) != "").
		Msg("chat service starting")
	return server.ListenAndServe(ctx)
}

func openCacheStore(ctx context.Context, path string) (storage.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return memory.New(), nil
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	return store, nil
}

func openRegistry(ctx context.Context, redisURL string, logger zerolog.Logger) (tag.Registry, func(), error) {
	redisURL = strings.TrimSpace(redisURL)
	if redisURL == "" {
		return tag.NewMemory(), func() {}, nil
	}
	registry, err := tag.ConnectRedis(ctx, redisURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect tag registry: %w", err)
	}
	return registry, func() {
		if err := registry.Close(); err != nil {
			logger.Warn().Err(err).Msg("close tag registry")
		}
	}, nil
}
