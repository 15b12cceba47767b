package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	"github.com/damon-houk/currency-exchange-app/internal/domain/service"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// DefaultExpiration is the freshness window used when none is configured
const DefaultExpiration = 5 * time.Minute

// Query shapes, used as metric labels and in log lines
const (
	ShapeConversion = "conversion"
	ShapeRate       = "rate"
	ShapeHistorical = "historical"
	ShapeCurrencies = "currencies"
)

// StatsRecorder receives cache events; metrics.Metrics implements it
type StatsRecorder interface {
	CacheHit(shape string)
	CacheMiss(shape string)
	CacheEviction(shape string)
}

type nopRecorder struct{}

func (nopRecorder) CacheHit(string)      {}
func (nopRecorder) CacheMiss(string)     {}
func (nopRecorder) CacheEviction(string) {}

// CacheStats reports how many entries each mapping currently holds.
// Expired entries count until a lookup evicts them.
type CacheStats struct {
	Conversions int           `json:"conversions"`
	Rates       int           `json:"rates"`
	Historical  int           `json:"historical"`
	Currencies  int           `json:"currencies"`
	Expiration  time.Duration `json:"expiration"`
}

// Option configures a CachingRateSource
type Option func(*CachingRateSource)

// WithExpiration sets the freshness window
func WithExpiration(d time.Duration) Option {
	return func(c *CachingRateSource) {
		if d > 0 {
			c.expiration = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *CachingRateSource) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRequestCollapsing makes concurrent misses for the same key share a
// single call to the wrapped source. Without it both callers fetch and the
// last write wins. The shared call ignores cancellation of the caller that
// started it; each caller stops waiting when its own context is done.
func WithRequestCollapsing() Option {
	return func(c *CachingRateSource) {
		c.collapse = true
	}
}

// WithStatsRecorder sets the receiver of hit/miss/eviction events
func WithStatsRecorder(r StatsRecorder) Option {
	return func(c *CachingRateSource) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger sets the logger used for cache debug output
func WithLogger(l logger.Logger) Option {
	return func(c *CachingRateSource) {
		if l != nil {
			c.logger = l
		}
	}
}

// CachingRateSource memoizes the answers of a wrapped RateSource for a
// fixed freshness window. Failures of the wrapped source are returned
// unchanged and never stored.
type CachingRateSource struct {
	inner      service.RateSource
	expiration time.Duration
	now        func() time.Time
	recorder   StatsRecorder
	logger     logger.Logger

	collapse bool
	flights  singleflight.Group

	// mutex guards the four stores; it is never held across a call to inner
	mutex       sync.Mutex
	conversions *store[decimal.Decimal]
	rates       *store[entity.ExchangeRate]
	historical  *store[[]entity.HistoricalRate]
	currencies  *store[[]entity.Currency]
}

// NewCachingRateSource wraps inner with an in-memory cache
func NewCachingRateSource(inner service.RateSource, opts ...Option) *CachingRateSource {
	c := &CachingRateSource{
		inner:       inner,
		expiration:  DefaultExpiration,
		now:         time.Now,
		recorder:    nopRecorder{},
		logger:      logger.Nop(),
		conversions: newStore[decimal.Decimal](),
		rates:       newStore[entity.ExchangeRate](),
		historical:  newStore[[]entity.HistoricalRate](),
		currencies:  newStore[[]entity.Currency](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert implements service.RateSource
func (c *CachingRateSource) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	return cached(ctx, c, c.conversions, ShapeConversion, ConversionKey(amount, from, to),
		func(ctx context.Context) (decimal.Decimal, error) {
			return c.inner.Convert(ctx, amount, from, to)
		})
}

// GetRate implements service.RateSource
func (c *CachingRateSource) GetRate(ctx context.Context, from, to string) (*entity.ExchangeRate, error) {
	rate, err := cached(ctx, c, c.rates, ShapeRate, RateKey(from, to),
		func(ctx context.Context) (entity.ExchangeRate, error) {
			r, err := c.inner.GetRate(ctx, from, to)
			if err != nil {
				return entity.ExchangeRate{}, err
			}
			return *r, nil
		})
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// GetHistorical implements service.RateSource
func (c *CachingRateSource) GetHistorical(ctx context.Context, from, to string, days int) ([]entity.HistoricalRate, error) {
	series, err := cached(ctx, c, c.historical, ShapeHistorical, HistoricalKey(from, to, days),
		func(ctx context.Context) ([]entity.HistoricalRate, error) {
			s, err := c.inner.GetHistorical(ctx, from, to, days)
			return slices.Clone(s), err
		})
	if err != nil {
		return nil, err
	}
	return slices.Clone(series), nil
}

// GetAvailableCurrencies implements service.RateSource
func (c *CachingRateSource) GetAvailableCurrencies(ctx context.Context) ([]entity.Currency, error) {
	return c.currencyList(ctx, AvailableCurrenciesKey, c.inner.GetAvailableCurrencies)
}

// GetPopularCurrencies implements service.RateSource
func (c *CachingRateSource) GetPopularCurrencies(ctx context.Context) ([]entity.Currency, error) {
	return c.currencyList(ctx, PopularCurrenciesKey, c.inner.GetPopularCurrencies)
}

func (c *CachingRateSource) currencyList(ctx context.Context, key string, fetch func(context.Context) ([]entity.Currency, error)) ([]entity.Currency, error) {
	list, err := cached(ctx, c, c.currencies, ShapeCurrencies, key,
		func(ctx context.Context) ([]entity.Currency, error) {
			l, err := fetch(ctx)
			return slices.Clone(l), err
		})
	if err != nil {
		return nil, err
	}
	return slices.Clone(list), nil
}

// ClearAll empties every mapping
func (c *CachingRateSource) ClearAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.conversions.clear()
	c.rates.clear()
	c.historical.clear()
	c.currencies.clear()

	c.logger.Debug("Cache cleared", nil)
}

// ClearKey removes key from every mapping. Absent keys are ignored.
func (c *CachingRateSource) ClearKey(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.conversions.remove(key)
	c.rates.remove(key)
	c.historical.remove(key)
	c.currencies.remove(key)

	c.logger.Debug("Cache key cleared", map[string]interface{}{"key": key})
}

// Stats returns the number of entries per mapping
func (c *CachingRateSource) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return CacheStats{
		Conversions: c.conversions.size(),
		Rates:       c.rates.size(),
		Historical:  c.historical.size(),
		Currencies:  c.currencies.size(),
		Expiration:  c.expiration,
	}
}

// Expiration returns the configured freshness window
func (c *CachingRateSource) Expiration() time.Duration {
	return c.expiration
}

// cached is the shared hit/miss path for all shapes
func cached[V any](ctx context.Context, c *CachingRateSource, s *store[V], shape, key string, fetch func(context.Context) (V, error)) (V, error) {
	if v, ok := lookup(c, s, shape, key); ok {
		return v, nil
	}

	c.recorder.CacheMiss(shape)
	c.logger.Debug("Cache miss", map[string]interface{}{"shape": shape, "key": key})

	if !c.collapse {
		return fill(ctx, c, s, key, fetch)
	}

	// values from the caller's ctx (request id) are kept, its cancellation is not
	flightCtx := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(shape+"\x00"+key, func() (interface{}, error) {
		// a flight that finished between our lookup and DoChan may have stored it
		c.mutex.Lock()
		v, result := s.get(key, c.now())
		c.mutex.Unlock()
		if result == lookupFresh {
			return v, nil
		}
		return fill(flightCtx, c, s, key, fetch)
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("Joined in-flight fetch", map[string]interface{}{"shape": shape, "key": key})
		}
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

func lookup[V any](c *CachingRateSource, s *store[V], shape, key string) (V, bool) {
	c.mutex.Lock()
	v, result := s.get(key, c.now())
	c.mutex.Unlock()

	switch result {
	case lookupFresh:
		c.recorder.CacheHit(shape)
		c.logger.Debug("Cache hit", map[string]interface{}{"shape": shape, "key": key})
		return v, true
	case lookupExpired:
		c.recorder.CacheEviction(shape)
		c.logger.Debug("Cache entry expired", map[string]interface{}{"shape": shape, "key": key})
	}
	return v, false
}

// fill fetches from the wrapped source and stores the value only on success
func fill[V any](ctx context.Context, c *CachingRateSource, s *store[V], key string, fetch func(context.Context) (V, error)) (V, error) {
	v, err := fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mutex.Lock()
	s.put(key, v, c.now().Add(c.expiration))
	c.mutex.Unlock()

	return v, nil
}

var _ service.RateSource = (*CachingRateSource)(nil)
