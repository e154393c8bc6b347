// Package region converts monetary values between countries, currencies and
// price years.
package region

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcost/internal/model"
	"github.com/sells-group/windcost/internal/refdata"
	"github.com/sells-group/windcost/internal/stats"
)

// ReferenceCountry is the country US-denominated cost regressions are
// calibrated for.
const ReferenceCountry = "USA"

// WageSurvey reports a country's average hourly wage across all skill
// levels.
type WageSurvey interface {
	Average(country string, currency refdata.WageCurrency) (refdata.WageObservation, error)
}

// Adjuster applies inflation, currency and wage-level adjustments.
type Adjuster struct {
	stats stats.Provider
	rates Rates
	wages WageSurvey
}

// NewAdjuster creates an Adjuster.
func NewAdjuster(p stats.Provider, rates Rates, wages WageSurvey) *Adjuster {
	return &Adjuster{stats: p, rates: rates, wages: wages}
}

// Rates returns the exchange-rate table in use.
func (a *Adjuster) Rates() Rates {
	return a.rates
}

// InflationAdjust returns value × CPI(country, to) / CPI(country, from).
func (a *Adjuster) InflationAdjust(ctx context.Context, value float64, country string, from, to int) (float64, error) {
	if from == to {
		return value, nil
	}
	past, err := a.stats.Value(ctx, stats.IndicatorCPI, country, from)
	if err != nil {
		return 0, eris.Wrapf(err, "region: CPI %s %d", country, from)
	}
	current, err := a.stats.Value(ctx, stats.IndicatorCPI, country, to)
	if err != nil {
		return 0, eris.Wrapf(err, "region: CPI %s %d", country, to)
	}
	if past == 0 {
		return 0, model.Unavailable("region: CPI %s %d is zero", country, from)
	}
	return value * current / past, nil
}

// Inflate moves amt to price year to using the country's CPI. The
// currency is unchanged.
func (a *Adjuster) Inflate(ctx context.Context, amt model.Amount, country string, to int) (model.Amount, error) {
	v, err := a.InflationAdjust(ctx, amt.Value, country, amt.Year, to)
	if err != nil {
		return model.Amount{}, err
	}
	return model.NewAmount(v, amt.Currency, to), nil
}

// CurrencyConvert converts amt into currency to at the rate for amt's
// price year.
func (a *Adjuster) CurrencyConvert(amt model.Amount, to model.Currency) (model.Amount, error) {
	rate, err := a.rates.Rate(amt.Currency, to, amt.Year)
	if err != nil {
		return model.Amount{}, err
	}
	return model.NewAmount(amt.Value*rate, to, amt.Year), nil
}

// WageFactor returns the ratio of the country's average hourly wage to the
// US average wage, both in USD. Countries published only in local currency
// are converted at the reference-year rate.
func (a *Adjuster) WageFactor(ctx context.Context, country string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	us, err := a.wages.Average(ReferenceCountry, refdata.WageUSD)
	if err != nil {
		return 0, eris.Wrap(err, "region: reference wage")
	}
	if us.Value <= 0 {
		return 0, model.Unavailable("region: reference wage is not positive")
	}

	local, err := a.localWageUSD(country)
	if err != nil {
		return 0, err
	}

	factor := local / us.Value
	zap.L().Debug("region: wage factor",
		zap.String("country", country),
		zap.Float64("local_wage_usd", local),
		zap.Float64("us_wage_usd", us.Value),
		zap.Float64("factor", factor),
	)
	return factor, nil
}

func (a *Adjuster) localWageUSD(country string) (float64, error) {
	if cur, ok := a.rates.WageCurrency(country); ok {
		obs, err := a.wages.Average(country, refdata.WageLocal)
		if err != nil {
			return 0, eris.Wrapf(err, "region: local-currency wage %s", country)
		}
		rate, err := a.rates.Rate(cur, model.USD, model.ReferenceYear)
		if err != nil {
			return 0, err
		}
		return obs.Value * rate, nil
	}

	obs, err := a.wages.Average(country, refdata.WageUSD)
	if err != nil {
		return 0, eris.Wrapf(err, "region: wage %s", country)
	}
	return obs.Value, nil
}
