// Package capex estimates the one-time capital cost of a turbine: the
// regionalized balance of system plus the turbine manufacturing cost.
package capex

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/windcost/internal/bos"
	"github.com/sells-group/windcost/internal/model"
	"github.com/sells-group/windcost/internal/refdata"
	"github.com/sells-group/windcost/internal/region"
	"github.com/sells-group/windcost/internal/stats"
)

const stage = "capex"

// Estimator computes capital cost breakdowns.
type Estimator struct {
	bos      bos.Estimator
	adj      *region.Adjuster
	stats    stats.Provider
	tables   *refdata.Tables
	layout   bos.Layout
	template *bos.Template
}

// NewEstimator creates an Estimator. A nil template makes every estimate
// fail with bos.ErrTemplateMissing.
func NewEstimator(est bos.Estimator, adj *region.Adjuster, p stats.Provider, tables *refdata.Tables, layout bos.Layout, template *bos.Template) *Estimator {
	return &Estimator{
		bos:      est,
		adj:      adj,
		stats:    p,
		tables:   tables,
		layout:   layout,
		template: template,
	}
}

// TurbineCost returns the manufacturing cost of one turbine in USD at the
// reference year, before variant scaling.
func (e *Estimator) TurbineCost(ctx context.Context, spec model.TurbineSpec) (model.Amount, error) {
	raw := TurbineComponents(spec.RotorDiameter, spec.RatedPower, spec.HubHeight).Total()
	amt, err := e.adj.Inflate(ctx, model.NewAmount(raw, model.USD, TurbineCostYear), region.ReferenceCountry, model.ReferenceYear)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "turbine CPI", err)
	}
	return amt, nil
}

// Estimate returns the capital cost of one turbine of spec. A failed
// balance-of-system run has no fallback.
func (e *Estimator) Estimate(ctx context.Context, spec model.TurbineSpec) (model.CapexBreakdown, error) {
	var out model.CapexBreakdown

	in, err := e.BuildInput(ctx, spec)
	if err != nil {
		return out, err
	}
	b, err := e.bos.Estimate(ctx, in)
	if err != nil {
		return out, model.StageFailure(stage, "balance of system", err)
	}

	turbine, err := e.TurbineCost(ctx, spec)
	if err != nil {
		return out, err
	}

	out.BalanceOfSystem = model.Normalized(b.Total)
	out.Turbine = turbine
	out.TurbineScaled = turbine.Scale(spec.Variant.Factor())
	if out.Total, err = model.Sum(out.BalanceOfSystem, out.TurbineScaled); err != nil {
		return out, model.StageFailure(stage, "total", err)
	}

	zap.L().Info("capex: estimated",
		zap.String("country", spec.Country),
		zap.String("variant", string(spec.Variant)),
		zap.Float64("bos_usd", out.BalanceOfSystem.Value),
		zap.Float64("turbine_usd", out.TurbineScaled.Value),
		zap.Float64("capex_usd", out.Total.Value),
	)
	return out, nil
}
