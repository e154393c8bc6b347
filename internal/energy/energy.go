// Package energy estimates the annual energy yield of a single turbine.
package energy

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/windcost/internal/farm"
	"github.com/sells-group/windcost/internal/model"
)

// ReferenceRatingKW is the rating the reference per-turbine yield is
// scaled from.
const ReferenceRatingKW = 3370.0

// FarmSimulator computes the annual energy production of a layout.
type FarmSimulator interface {
	AEP(ctx context.Context, site farm.Site, t farm.Turbine, layout []*geom.Point) (*farm.Yield, error)
}

// Estimator scales the simulated reference farm yield to a turbine rating.
// The reference farm is simulated until one run succeeds; that result is
// reused.
type Estimator struct {
	sim      FarmSimulator
	site     farm.Site
	override float64

	mu        sync.Mutex
	reference float64
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithSite replaces the reference site, e.g. with a shapefile boundary.
func WithSite(s farm.Site) Option {
	return func(e *Estimator) { e.site = s }
}

// WithReferenceAEP skips simulation and uses a fixed farm total in kWh.
func WithReferenceAEP(kwh float64) Option {
	return func(e *Estimator) { e.override = kwh }
}

// NewEstimator creates an Estimator over sim.
func NewEstimator(sim FarmSimulator, opts ...Option) *Estimator {
	e := &Estimator{sim: sim, site: farm.ReferenceSite()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReferencePerTurbine returns the simulated per-turbine yield of the
// reference farm in kWh. Failures, including cancellation of ctx, are not
// cached.
func (e *Estimator) ReferencePerTurbine(ctx context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.reference > 0 {
		return e.reference, nil
	}
	ref, err := e.simulate(ctx)
	if err != nil {
		return 0, err
	}
	e.reference = ref
	return ref, nil
}

func (e *Estimator) simulate(ctx context.Context) (float64, error) {
	if e.override > 0 {
		return e.override / farm.ReferenceTurbineCount, nil
	}
	if e.sim == nil {
		return 0, eris.New("energy: no farm simulator configured")
	}
	layout := farm.BaselineLayout()
	y, err := e.sim.AEP(ctx, e.site, farm.ReferenceTurbine(), layout)
	if err != nil {
		return 0, eris.Wrap(err, "energy: simulate reference farm")
	}
	if y.TotalKWh <= 0 {
		return 0, eris.Errorf("energy: reference farm produced %v kWh", y.TotalKWh)
	}
	return y.TotalKWh / float64(len(layout)), nil
}

// AnnualYield returns the annual energy yield in kWh of one turbine rated
// ratedKW. The reference yield is scaled linearly with rating rather than
// re-simulated.
func (e *Estimator) AnnualYield(ctx context.Context, ratedKW float64) (float64, error) {
	if !(ratedKW > 0) {
		return 0, eris.Wrapf(model.ErrInvalidInput, "energy: rated power must be positive, got %v", ratedKW)
	}
	ref, err := e.ReferencePerTurbine(ctx)
	if err != nil {
		return 0, err
	}
	y := ref * (ratedKW / ReferenceRatingKW)
	zap.L().Debug("energy: annual yield",
		zap.Float64("rated_kw", ratedKW),
		zap.Float64("reference_kwh", ref),
		zap.Float64("yield_kwh", y),
	)
	return y, nil
}
