// Package discount derives a country's nominal after-tax discount rate.
package discount

import (
	"context"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/windcost/internal/model"
	"github.com/sells-group/windcost/internal/stats"
)

const stage = "discount"

// Inflation averaging window.
const (
	InflationFrom = 2003
	InflationTo   = 2023
)

// DefaultEurozoneRate is the policy interest rate in percent applied to
// euro area members in place of a national lookup.
const DefaultEurozoneRate = 4.5

// eurozone lists the members sharing the euro area policy rate.
var eurozone = map[string]bool{
	"AUT": true, "BEL": true, "HRV": true, "CYP": true, "DEU": true,
	"EST": true, "FIN": true, "FRA": true, "GRC": true, "IRL": true,
	"ITA": true, "LVA": true, "LTU": true, "LUX": true, "MLT": true,
	"NLD": true, "PRT": true, "SVK": true, "SVN": true, "ESP": true,
}

// InEurozone reports whether iso3 uses the euro area policy rate.
func InEurozone(iso3 string) bool {
	return eurozone[iso3]
}

// TaxTable reports corporate tax rates in percent.
type TaxTable interface {
	Rate(iso3 string) (float64, error)
}

// Components are the inputs of one discount rate, in percent.
type Components struct {
	Interest  float64 `json:"interest"`
	Inflation float64 `json:"inflation"`
	Tax       float64 `json:"tax"`
}

// Rate returns ((1+i)(1+π)-1)(1-τ) as a fraction.
func (c Components) Rate() float64 {
	return ((1+c.Interest/100)*(1+c.Inflation/100) - 1) * (1 - c.Tax/100)
}

// Calculator computes discount rates.
type Calculator struct {
	stats        stats.Provider
	tax          TaxTable
	eurozoneRate float64
}

// NewCalculator creates a Calculator. A non-positive eurozoneRate selects
// DefaultEurozoneRate.
func NewCalculator(p stats.Provider, tax TaxTable, eurozoneRate float64) *Calculator {
	if eurozoneRate <= 0 {
		eurozoneRate = DefaultEurozoneRate
	}
	return &Calculator{stats: p, tax: tax, eurozoneRate: eurozoneRate}
}

// Components looks up the interest, inflation and tax inputs for iso3.
func (c *Calculator) Components(ctx context.Context, iso3 string) (Components, error) {
	var out Components

	tax, err := c.tax.Rate(iso3)
	if err != nil {
		return out, model.StageFailure(stage, "corporate tax", err)
	}
	out.Tax = tax

	if InEurozone(iso3) {
		out.Interest = c.eurozoneRate
	} else {
		obs, err := c.stats.MostRecent(ctx, stats.IndicatorRealInterest, iso3)
		if err != nil {
			return out, model.StageFailure(stage, "interest rate", err)
		}
		out.Interest = obs.Value
	}

	series, err := c.stats.Series(ctx, stats.IndicatorInflation, iso3, InflationFrom, InflationTo)
	if err != nil {
		return out, model.StageFailure(stage, "inflation", err)
	}
	if len(series) == 0 {
		return out, model.StageFailure(stage, "inflation",
			model.Unavailable("discount: no inflation observations for %s %d-%d", iso3, InflationFrom, InflationTo))
	}
	values := make([]float64, len(series))
	for i, o := range series {
		values[i] = o.Value
	}
	// Mean over the years reported in the window. Missing years are not
	// counted as zero and a full 2003-2023 window averages 21 values.
	out.Inflation = stat.Mean(values, nil)
	return out, nil
}

// Rate returns the discount rate for iso3 as a fraction.
func (c *Calculator) Rate(ctx context.Context, iso3 string) (float64, error) {
	comp, err := c.Components(ctx, iso3)
	if err != nil {
		return 0, err
	}
	r := comp.Rate()
	zap.L().Info("discount: rate computed",
		zap.String("country", iso3),
		zap.Float64("interest_pct", comp.Interest),
		zap.Float64("inflation_pct", comp.Inflation),
		zap.Float64("tax_pct", comp.Tax),
		zap.Bool("eurozone", InEurozone(iso3)),
		zap.Float64("rate", r),
	)
	return r, nil
}
