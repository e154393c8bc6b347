package stats

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/windcost/internal/model"
)

// Memo caches provider answers for the lifetime of one computation so each
// (indicator, country, year) is queried upstream at most once. Concurrent
// identical queries share one upstream call. Data-unavailable answers are
// cached as well; any other error is not.
type Memo struct {
	inner Provider
	group singleflight.Group
	calls atomic.Int64

	mu      sync.Mutex
	entries map[string]memoEntry
}

type memoEntry struct {
	obs []Observation
	err error
}

// NewMemo wraps inner with a per-run memoizing cache.
func NewMemo(inner Provider) *Memo {
	return &Memo{inner: inner, entries: make(map[string]memoEntry)}
}

// UpstreamCalls returns how many queries reached the wrapped provider.
func (m *Memo) UpstreamCalls() int64 {
	return m.calls.Load()
}

// Value implements Provider.
func (m *Memo) Value(ctx context.Context, indicator, country string, year int) (float64, error) {
	obs, err := m.do(ctx, queryKey("value", indicator, country, year, year), func() ([]Observation, error) {
		v, err := m.inner.Value(ctx, indicator, country, year)
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
func (m *Memo) MostRecent(ctx context.Context, indicator, country string) (Observation, error) {
	obs, err := m.do(ctx, queryKey("mrv", indicator, country, 0, 0), func() ([]Observation, error) {
		o, err := m.inner.MostRecent(ctx, indicator, country)
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
func (m *Memo) Series(ctx context.Context, indicator, country string, from, to int) ([]Observation, error) {
	obs, err := m.do(ctx, queryKey("series", indicator, country, from, to), func() ([]Observation, error) {
		return m.inner.Series(ctx, indicator, country, from, to)
	})
	if err != nil {
		return nil, err
	}
	out := make([]Observation, len(obs))
	copy(out, obs)
	return out, nil
}

func (m *Memo) do(ctx context.Context, key string, fetch func() ([]Observation, error)) ([]Observation, error) {
	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		m.mu.Unlock()
		return e.obs, e.err
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (any, error) {
		m.calls.Add(1)
		obs, err := fetch()
		if err == nil || model.IsUnavailable(err) {
			m.mu.Lock()
			m.entries[key] = memoEntry{obs: obs, err: err}
			m.mu.Unlock()
		}
		return obs, err
	})
	if err != nil {
		zap.L().Debug("stats: lookup failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return v.([]Observation), nil
}
