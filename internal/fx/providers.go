package fx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/sp3dr4/shortin/config"
	"github.com/sp3dr4/shortin/internal/application"
	"github.com/sp3dr4/shortin/internal/domain"
	cacheImpl "github.com/sp3dr4/shortin/internal/infrastructure/cache"
	"github.com/sp3dr4/shortin/internal/infrastructure/memory"
	redisCache "github.com/sp3dr4/shortin/internal/infrastructure/redis"
	"github.com/sp3dr4/shortin/internal/infrastructure/upstream"
	"github.com/sp3dr4/shortin/internal/pkg/logging"
	"github.com/sp3dr4/shortin/internal/pkg/metrics"
)

// ProvideLogger creates and configures the application logger
func ProvideLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	return logger
}

// ProvideUpstreamAPI creates the client for the external link API
func ProvideUpstreamAPI(cfg *config.Config, logger *slog.Logger) domain.UpstreamAPI {
	logger.Info("Using link API", "endpoint", cfg.Upstream.APIEndpoint)
	return upstream.NewClient(cfg.Upstream.APIEndpoint, cfg.Upstream.Timeout, logger)
}

// ProvideCache creates the lookup cache selected by configuration
func ProvideCache(cfg *config.Config, logger *slog.Logger) (domain.Cache, error) {
	switch cfg.Cache.Type {
	case "", "none":
		logger.Info("Lookup cache disabled")
		return cacheImpl.NewNoOpCache(), nil

	case "memory":
		logger.Info("Using in-memory lookup cache", "ttl", cfg.Cache.TTL)
		return memory.NewCache(), nil

	case "redis":
		logger.Info("Using Redis lookup cache", "addr", cfg.Cache.Redis.Addr, "ttl", cfg.Cache.TTL)
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})

		// An unreachable Redis is not fatal; lookups fall through and /ready reports it.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis not reachable at startup", "addr", cfg.Cache.Redis.Addr, "error", err)
		}

		return redisCache.NewRedisCache(client, logger), nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Cache.Type)
	}
}

// ProvideMetricsRegistry creates a Prometheus registry, or a no-op one when metrics are disabled
func ProvideMetricsRegistry(cfg *config.Config) (metrics.Registry, error) {
	if !cfg.Metrics.Enabled {
		return metrics.NewNoOpRegistry(), nil
	}
	return metrics.NewPrometheusRegistry(cfg.Metrics)
}

// ProvideLinkService wires the proxy use-cases
func ProvideLinkService(api domain.UpstreamAPI, cache domain.Cache, cfg *config.Config, registry metrics.Registry, logger *slog.Logger) *application.LinkService {
	return application.NewLinkService(api, cache, cfg.Cache.TTL, registry, logger)
}

// CacheParams holds the parameters needed for cache lifecycle management
type CacheParams struct {
	fx.In

	Cache  domain.Cache
	Logger *slog.Logger
}

// RegisterCacheHooks registers cache lifecycle hooks with FX
func RegisterCacheHooks(lc fx.Lifecycle, params CacheParams) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := params.Cache.Close(); err != nil {
				params.Logger.Error("Failed to close cache resources", "error", err)
				return err
			}
			params.Logger.Info("Cache resources closed successfully")
			return nil
		},
	})
}
