// Package lcoe combines the yield, discount rate and cost stages into a
// levelized cost of energy.
package lcoe

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcost/internal/model"
	"github.com/sells-group/windcost/internal/stats"
)

// YieldEstimator reports a turbine's annual energy yield in kWh.
type YieldEstimator interface {
	AnnualYield(ctx context.Context, ratedKW float64) (float64, error)
}

// RateCalculator reports a country's discount rate as a fraction.
type RateCalculator interface {
	Rate(ctx context.Context, iso3 string) (float64, error)
}

// CapexEstimator prices the one-time capital cost.
type CapexEstimator interface {
	Estimate(ctx context.Context, spec model.TurbineSpec) (model.CapexBreakdown, error)
}

// OpexEstimator prices the annual operating cost.
type OpexEstimator interface {
	Estimate(ctx context.Context, spec model.TurbineSpec, aepKWh float64) (model.OpexBreakdown, error)
}

// DecomEstimator prices end-of-life cost.
type DecomEstimator interface {
	Estimate(ctx context.Context, spec model.TurbineSpec) (model.DecomBreakdown, error)
}

// Stages are the collaborators of one computation.
type Stages struct {
	Yield YieldEstimator
	Rate  RateCalculator
	Capex CapexEstimator
	Opex  OpexEstimator
	Decom DecomEstimator
}

// Builder creates the stages of one computation over a run-scoped
// statistics provider.
type Builder func(p stats.Provider) Stages

// Calculator computes LCOE results. Each call gets its own memoized view
// of the statistics provider, so repeated lookups within a run reach the
// upstream once.
type Calculator struct {
	stats    stats.Provider
	build    Builder
	lifetime int
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLifetime overrides the operating horizon.
func WithLifetime(years int) Option {
	return func(c *Calculator) {
		if years > 0 {
			c.lifetime = years
		}
	}
}

// NewCalculator creates a Calculator.
func NewCalculator(p stats.Provider, build Builder, opts ...Option) *Calculator {
	c := &Calculator{stats: p, build: build, lifetime: DefaultLifetime}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute returns the LCOE of spec. Invalid specs are rejected before any
// lookup; a failure names the stage and lookup that caused it.
func (c *Calculator) Compute(ctx context.Context, spec model.TurbineSpec) (*model.Result, error) {
	spec = spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	memo := stats.NewMemo(c.stats)
	st := c.build(memo)

	aep, err := st.Yield.AnnualYield(ctx, spec.RatedPower)
	if err != nil {
		return nil, stageError("energy", err)
	}
	if !(aep > 0) {
		return nil, model.StageFailure("energy", "annual yield", eris.Errorf("lcoe: annual yield %v kWh is not positive", aep))
	}
	rate, err := st.Rate.Rate(ctx, spec.Country)
	if err != nil {
		return nil, stageError("discount", err)
	}
	if rate <= -1 {
		return nil, model.StageFailure("discount", "rate", eris.Errorf("lcoe: discount rate %v is not above -100%%", rate))
	}
	capex, err := st.Capex.Estimate(ctx, spec)
	if err != nil {
		return nil, stageError("capex", err)
	}
	opex, err := st.Opex.Estimate(ctx, spec, aep)
	if err != nil {
		return nil, stageError("opex", err)
	}
	decom, err := st.Decom.Estimate(ctx, spec)
	if err != nil {
		return nil, stageError("decom", err)
	}

	if err := model.RequireNormalized(capex.Total, opex.Total, decom.Total); err != nil {
		return nil, eris.Wrap(err, "lcoe: stage totals")
	}

	sched := NewSchedule(rate, c.lifetime)
	tot := sched.Discount(capex.Total.Value, opex.Total.Value, decom.Total.Value, aep)
	if !(tot.Energy > 0) {
		return nil, eris.Errorf("lcoe: discounted energy %v kWh is not positive", tot.Energy)
	}

	res := &model.Result{
		Spec:             spec,
		LCOE:             tot.LCOE(),
		DiscountRate:     rate,
		AnnualYieldKWh:   aep,
		Capex:            capex,
		Opex:             opex,
		Decom:            decom,
		DiscountedCost:   tot.Cost,
		DiscountedEnergy: tot.Energy,
		LifetimeYears:    sched.Years,
	}

	zap.L().Info("lcoe: computed",
		zap.String("country", spec.Country),
		zap.String("variant", string(spec.Variant)),
		zap.Float64("lcoe_usd_per_mwh", res.LCOE),
		zap.Float64("discount_rate", rate),
		zap.Float64("aep_kwh", aep),
		zap.Bool("decom_fallback", decom.Fallback),
		zap.Int64("stat_lookups", memo.UpstreamCalls()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// stageError tags err with stage unless a stage already claimed it.
func stageError(stage string, err error) error {
	var se *model.StageError
	if errors.As(err, &se) {
		return err
	}
	return model.StageFailure(stage, "", err)
}
