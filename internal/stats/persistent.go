package stats

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Cache stores encoded provider answers with an expiry.
type Cache interface {
	GetCachedIndicator(ctx context.Context, key string) ([]byte, error)
	SetCachedIndicator(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Persistent layers a TTL cache shared across runs under a Provider. Only
// successful answers are stored. Cache failures are logged and bypassed.
type Persistent struct {
	inner Provider
	cache Cache
	ttl   time.Duration
}

// NewPersistent wraps inner with cache. A non-positive ttl disables caching.
func NewPersistent(inner Provider, cache Cache, ttl time.Duration) *Persistent {
	return &Persistent{inner: inner, cache: cache, ttl: ttl}
}

// Value implements Provider.
func (p *Persistent) Value(ctx context.Context, indicator, country string, year int) (float64, error) {
	obs, err := p.load(ctx, queryKey("value", indicator, country, year, year), func() ([]Observation, error) {
		v, err := p.inner.Value(ctx, indicator, country, year)
		if err != nil {
			return nil, err
		}
		return []Observation{{Year: year, Value: v}}, nil
	})
	if err != nil {
		return 0, err
	}
	return obs[0].Value, nil
}

// MostRecent implements Provider.
func (p *Persistent) MostRecent(ctx context.Context, indicator, country string) (Observation, error) {
	obs, err := p.load(ctx, queryKey("mrv", indicator, country, 0, 0), func() ([]Observation, error) {
		o, err := p.inner.MostRecent(ctx, indicator, country)
		if err != nil {
			return nil, err
		}
		return []Observation{o}, nil
	})
	if err != nil {
		return Observation{}, err
	}
	return obs[0], nil
}

// Series implements Provider.
func (p *Persistent) Series(ctx context.Context, indicator, country string, from, to int) ([]Observation, error) {
	return p.load(ctx, queryKey("series", indicator, country, from, to), func() ([]Observation, error) {
		return p.inner.Series(ctx, indicator, country, from, to)
	})
}

func (p *Persistent) load(ctx context.Context, key string, fetch func() ([]Observation, error)) ([]Observation, error) {
	if p.cache == nil || p.ttl <= 0 {
		return fetch()
	}

	data, err := p.cache.GetCachedIndicator(ctx, key)
	if err != nil {
		zap.L().Warn("stats: indicator cache read failed", zap.String("key", key), zap.Error(err))
	} else if data != nil {
		var obs []Observation
		if err := json.Unmarshal(data, &obs); err == nil && len(obs) > 0 {
			return obs, nil
		}
	}

	obs, err := fetch()
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(obs); err == nil {
		if err := p.cache.SetCachedIndicator(ctx, key, encoded, p.ttl); err != nil {
			zap.L().Warn("stats: indicator cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return obs, nil
}
