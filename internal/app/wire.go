package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/marketlens/internal/cache/memory"
	"github.com/alanyoungcy/marketlens/internal/cache/redis"
	"github.com/alanyoungcy/marketlens/internal/config"
	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/gateway"
	"github.com/alanyoungcy/marketlens/internal/platform/clob"
	"github.com/alanyoungcy/marketlens/internal/platform/gamma"
	"github.com/alanyoungcy/marketlens/internal/platform/subgraph"
	"github.com/alanyoungcy/marketlens/internal/upstream"
)

// Dependencies bundles everything the server needs to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Gateway *gateway.Gateway
}

// Wire constructs the concrete dependency graph from the configuration: the
// response cache backend, one executor plus governor per upstream host, the
// three clients, and the gateway over them. The returned cleanup function
// releases resources and should be called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Each upstream host gets its own cache so a Redis outage or an LRU bound
	// on one host never evicts another host's entries.
	newCache := func(ctx context.Context) (domain.ResponseCache, error) {
		if !cfg.Redis.Enabled {
			return memory.New(cfg.Client.CacheTTL.Duration, cfg.Client.CacheCapacity), nil
		}
		client, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		return redis.NewResponseCache(client, cfg.Client.CacheTTL.Duration, logger), nil
	}

	newExecutor := func(ctx context.Context, baseURL, component string, extra map[string]string) (*upstream.Executor, error) {
		cache, err := newCache(ctx)
		if err != nil {
			return nil, err
		}
		return upstream.NewExecutor(upstream.Options{
			BaseURL:        baseURL,
			Cache:          cache,
			Governor:       upstream.NewGovernor(cfg.Client.MinRequestInterval.Duration),
			Logger:         logger.With(slog.String("component", component)),
			MaxRetries:     cfg.Client.MaxRetries,
			AttemptTimeout: cfg.Client.AttemptTimeout.Duration,
			ExtraHeaders:   extra,
		}), nil
	}

	clobExec, err := newExecutor(ctx, cfg.Upstream.ClobHost, "clob", nil)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: clob: %w", err)
	}
	gammaExec, err := newExecutor(ctx, cfg.Upstream.GammaHost, "gamma", nil)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: gamma: %w", err)
	}

	var subgraphHeaders map[string]string
	if cfg.Upstream.SubgraphAPIKey != "" {
		subgraphHeaders = map[string]string{
			"Authorization": "Bearer " + cfg.Upstream.SubgraphAPIKey,
		}
	}
	subgraphExec, err := newExecutor(ctx, cfg.Upstream.SubgraphURL, "subgraph", subgraphHeaders)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: subgraph: %w", err)
	}

	deps := &Dependencies{
		Gateway: gateway.New(
			clob.NewClient(clobExec),
			gamma.NewClient(gammaExec),
			subgraph.NewClient(subgraphExec),
			logger,
		),
	}
	return deps, cleanup, nil
}
