package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/marketpipe/internal/brain"
	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/external/alphavantage"
	"github.com/wonny/marketpipe/internal/external/naver"
	"github.com/wonny/marketpipe/internal/external/yahoo"
	"github.com/wonny/marketpipe/internal/metrics"
	"github.com/wonny/marketpipe/internal/pipelineconfig"
	"github.com/wonny/marketpipe/internal/report"
	"github.com/wonny/marketpipe/internal/sources"
	"github.com/wonny/marketpipe/pkg/config"
	"github.com/wonny/marketpipe/pkg/database"
	"github.com/wonny/marketpipe/pkg/httputil"
	"github.com/wonny/marketpipe/pkg/logger"
	"github.com/wonny/marketpipe/pkg/redis"
)

const redisPrefix = "marketpipe"

// app holds everything a command needs, built once from the environment
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	redis    *redis.Client
	db       *database.DB
	store    *report.Store
	registry *sources.Registry
	metrics  *metrics.Recorder
	pipeline *brain.Orchestrator
}

// newApp loads config and wires sources, metrics and the orchestrator.
// The run store is connected only when DATABASE_URL is set.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	a.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		a.redis = redis.Disabled()
	}

	a.registry, err = buildRegistry(cfg, a.redis, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.db, err = database.New(ctx, cfg.Database)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		log.Debug("DATABASE_URL not set, runs will not be stored")
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		a.store = report.NewStore(a.db.Pool)
		if err := a.store.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	deps := brain.Deps{Sources: a.registry}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
		deps.Observer = a.metrics
		deps.Recorder = a.metrics
	}
	a.pipeline = brain.NewPipeline(deps, log)

	return a, nil
}

// buildRegistry registers every source client behind the Redis cache and limiter
func buildRegistry(cfg *config.Config, rc *redis.Client, log *logger.Logger) (*sources.Registry, error) {
	limiter := redis.NewRateLimiter(rc, redisPrefix)
	cache := redis.NewCache(rc, redisPrefix)

	httpFor := func(limit redis.RateLimitConfig) *httputil.Client {
		c := httputil.New(cfg.HTTP, log)
		if rc.Enabled() {
			c = c.WithLimiter(limiter.For(limit))
		}
		return c
	}

	clients := []contracts.PriceSource{
		yahoo.NewClient(httpFor(redis.YahooRateLimit), cfg.Yahoo.BaseURL, log),
		alphavantage.NewClient(httpFor(redis.AlphaVantageRateLimit), cfg.AlphaVantage.BaseURL, cfg.AlphaVantage.APIKey, log),
		naver.NewClient(httpFor(redis.NaverRateLimit), cfg.Naver.BaseURL, cfg.Naver.ChartBaseURL, log),
	}

	registry := sources.NewRegistry()
	for _, c := range clients {
		registry.Register(sources.Wrap(c, cache, cfg.Redis.CacheTTL, log))
	}
	registry.Alias(sources.Primary, sources.YahooFinance)
	registry.Alias(sources.Secondary, sources.AlphaVantage)

	if fixtureFile != "" {
		static, err := sources.LoadStaticFile(sources.Primary, fixtureFile)
		if err != nil {
			return nil, err
		}
		registry.RegisterAs(sources.Primary, static)
		log.WithField("fixture", fixtureFile).Info("Serving primary source from fixture")
	}

	return registry, nil
}

// basePipelineConfig reads the pipeline YAML (flag, then env) without validating it.
// Without a file the zero config is returned and defaults are filled later.
func (a *app) basePipelineConfig() (contracts.PipelineConfig, error) {
	path := pipelineFile
	if path == "" {
		path = a.cfg.Pipeline.ConfigPath
	}

	var cfg contracts.PipelineConfig
	if path != "" {
		loaded, _, err := pipelineconfig.Read(path)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	if cfg.APIKey == "" {
		cfg.APIKey = a.cfg.AlphaVantage.APIKey
	}
	return cfg, nil
}

// pipelineConfig merges command line overrides over the YAML and validates the result
func (a *app) pipelineConfig(o pipelineconfig.Overrides) (contracts.PipelineConfig, error) {
	cfg, err := a.basePipelineConfig()
	if err != nil {
		return cfg, err
	}
	if err := pipelineconfig.Apply(&cfg, o); err != nil {
		return cfg, fmt.Errorf("pipeline config: %w", err)
	}
	return cfg, nil
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
