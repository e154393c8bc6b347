// Package stats defines the statistical-data provider used for price indices,
// interest rates and inflation series, plus caching layers around it.
package stats

import (
	"context"
	"fmt"
	"sync"

	"github.com/sells-group/windcost/internal/model"
)

// World Bank indicator codes.
const (
	IndicatorCPI          = "FP.CPI.TOTL"    // consumer price index (2010 = 100)
	IndicatorInflation    = "FP.CPI.TOTL.ZG" // inflation, consumer prices (annual %)
	IndicatorRealInterest = "FR.INR.RINR"    // real interest rate (%)
	IndicatorPriceLevel   = "PA.NUS.PPPC.RF" // price level ratio of PPP conversion factor to market exchange rate
)

// Observation is one annual value of an indicator.
type Observation struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Provider answers indicator queries by country (ISO alpha-3) and year.
// Missing observations are reported as errors wrapping
// model.ErrDataUnavailable.
type Provider interface {
	// Value returns the indicator value for a single year.
	Value(ctx context.Context, indicator, country string, year int) (float64, error)

	// MostRecent returns the latest non-empty observation.
	MostRecent(ctx context.Context, indicator, country string) (Observation, error)

	// Series returns the non-empty observations in [from, to], oldest first.
	Series(ctx context.Context, indicator, country string, from, to int) ([]Observation, error)
}

// StaticProvider serves indicator values from memory.
type StaticProvider struct {
	mu     sync.RWMutex
	values map[string]map[int]float64
}

// NewStaticProvider creates an empty StaticProvider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{values: make(map[string]map[int]float64)}
}

// Set stores a value and returns the provider for chaining.
func (p *StaticProvider) Set(indicator, country string, year int, value float64) *StaticProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := seriesKey(indicator, country)
	if p.values[k] == nil {
		p.values[k] = make(map[int]float64)
	}
	p.values[k][year] = value
	return p
}

// Value implements Provider.
func (p *StaticProvider) Value(_ context.Context, indicator, country string, year int) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[seriesKey(indicator, country)][year]
	if !ok {
		return 0, model.Unavailable("stats: %s for %s in %d", indicator, country, year)
	}
	return v, nil
}

// MostRecent implements Provider.
func (p *StaticProvider) MostRecent(_ context.Context, indicator, country string) (Observation, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	series := p.values[seriesKey(indicator, country)]
	best := Observation{}
	found := false
	for y, v := range series {
		if !found || y > best.Year {
			best = Observation{Year: y, Value: v}
			found = true
		}
	}
	if !found {
		return Observation{}, model.Unavailable("stats: %s for %s (most recent)", indicator, country)
	}
	return best, nil
}

// Series implements Provider.
func (p *StaticProvider) Series(_ context.Context, indicator, country string, from, to int) ([]Observation, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	series := p.values[seriesKey(indicator, country)]
	var out []Observation
	for y := from; y <= to; y++ {
		if v, ok := series[y]; ok {
			out = append(out, Observation{Year: y, Value: v})
		}
	}
	if len(out) == 0 {
		return nil, model.Unavailable("stats: %s for %s in %d-%d", indicator, country, from, to)
	}
	return out, nil
}

func seriesKey(indicator, country string) string {
	return indicator + "|" + country
}

// queryKey identifies a single provider call.
func queryKey(kind, indicator, country string, from, to int) string {
	return fmt.Sprintf("%s|%s|%s|%d|%d", kind, indicator, country, from, to)
}
