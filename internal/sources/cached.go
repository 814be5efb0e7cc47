package sources

import (
	"context"
	"time"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/pkg/logger"
	"github.com/wonny/marketpipe/pkg/redis"
)

// Cached decorates a source with a Redis response cache.
// Cache failures are logged and fall through to the wrapped source.
type Cached struct {
	inner  contracts.PriceSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCached wraps inner. A disabled Redis client makes it a pass-through.
func NewCached(inner contracts.PriceSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *Cached {
	return &Cached{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithField("source", inner.ID()),
	}
}

// ID returns the wrapped source id
func (c *Cached) ID() string {
	return c.inner.ID()
}

// RequiresAPIKey forwards to the wrapped source
func (c *Cached) RequiresAPIKey() bool {
	k, ok := c.inner.(contracts.KeyedSource)
	return ok && k.RequiresAPIKey()
}

// Fetch serves from cache when possible and stores fresh pulls
func (c *Cached) Fetch(ctx context.Context, req contracts.FetchRequest) ([]contracts.TimeSeriesRecord, error) {
	key := redis.SeriesKey(c.inner.ID(), req.Ticker, req.Period)

	var records []contracts.TimeSeriesRecord
	found, err := c.cache.Get(ctx, key, &records)
	if err != nil {
		c.logger.WithError(err).Warn("Series cache read failed")
	}
	if found {
		c.logger.WithField("ticker", req.Ticker).Debug("Series cache hit")
		return records, nil
	}

	records, err = c.inner.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, records, c.ttl); err != nil {
		c.logger.WithError(err).Warn("Series cache write failed")
	}
	return records, nil
}

// authoritativeCached keeps the fixed-quality marker of the wrapped source
type authoritativeCached struct {
	*Cached
	quality float64
}

func (a authoritativeCached) FixedQuality() float64 { return a.quality }

// Wrap returns a cached decorator that preserves the AuthoritativeSource marker
func Wrap(inner contracts.PriceSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) contracts.PriceSource {
	c := NewCached(inner, cache, ttl, log)
	if auth, ok := inner.(contracts.AuthoritativeSource); ok {
		return authoritativeCached{Cached: c, quality: auth.FixedQuality()}
	}
	return c
}
