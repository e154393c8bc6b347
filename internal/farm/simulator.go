package farm

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/sells-group/windcost/internal/model"
)

const (
	hoursPerYear = 8760.0
	// wakeExpansion is the Task 37 wake growth rate for 10% turbulence.
	wakeExpansion = 0.0324555
	// boundaryTolerance admits turbines placed on the boundary itself.
	boundaryTolerance = 1e-6
)

// Yield is the simulated annual energy production of a layout.
type Yield struct {
	PerTurbineKWh []float64
	TotalKWh      float64
}

// MeanKWh returns the average production per turbine.
func (y Yield) MeanKWh() float64 {
	if len(y.PerTurbineKWh) == 0 {
		return 0
	}
	return y.TotalKWh / float64(len(y.PerTurbineKWh))
}

// Simulator evaluates layouts with the Gaussian wake model.
type Simulator struct {
	// DisableWakes ignores wake interaction. Used for gross yield.
	DisableWakes bool
}

// NewSimulator creates a wake-aware simulator.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// AEP returns the annual energy production in kWh of the layout.
func (s *Simulator) AEP(ctx context.Context, site Site, t Turbine, layout []*geom.Point) (*Yield, error) {
	if len(layout) == 0 {
		return nil, eris.Wrap(model.ErrInvalidInput, "farm: empty layout")
	}
	if t.Diameter <= 0 || t.RatedPowerKW <= 0 {
		return nil, eris.Wrap(model.ErrInvalidInput, "farm: turbine diameter and rating must be positive")
	}
	if err := site.Rose.Validate(); err != nil {
		return nil, err
	}

	xs := make([]float64, len(layout))
	ys := make([]float64, len(layout))
	for i, p := range layout {
		if p == nil {
			return nil, eris.Wrapf(model.ErrInvalidInput, "farm: turbine %d has no position", i)
		}
		xs[i], ys[i] = p.X(), p.Y()
		if site.Boundary != nil && !Contains(site.Boundary, xs[i], ys[i], boundaryTolerance) {
			return nil, eris.Wrapf(model.ErrInvalidInput, "farm: turbine %d at (%.1f, %.1f) is outside the site boundary",
				i, xs[i], ys[i])
		}
	}

	rose := site.Rose
	// power[d][i] is turbine i's output in kW with wind from direction d.
	perTurbine := make([]float64, len(layout))
	column := make([]float64, len(rose.Directions))
	power := make([][]float64, len(rose.Directions))
	for d, dir := range rose.Directions {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "farm: simulation cancelled")
		}
		fx, fy := windFrame(xs, ys, dir)
		power[d] = make([]float64, len(layout))
		for i := range layout {
			loss := 0.0
			if !s.DisableWakes {
				loss = wakeLoss(fx, fy, i, t)
			}
			power[d][i] = t.Power(rose.Speed * (1 - loss))
		}
	}
	for i := range layout {
		for d := range rose.Directions {
			column[d] = power[d][i]
		}
		perTurbine[i] = hoursPerYear * floats.Dot(rose.Frequency, column)
	}

	y := &Yield{PerTurbineKWh: perTurbine, TotalKWh: floats.Sum(perTurbine)}
	zap.L().Debug("farm: simulated layout",
		zap.Int("turbines", len(layout)),
		zap.Bool("wakes", !s.DisableWakes),
		zap.Float64("aep_kwh", y.TotalKWh),
	)
	return y, nil
}

// windFrame rotates coordinates so the wind blows along +x.
func windFrame(xs, ys []float64, dirDeg float64) ([]float64, []float64) {
	rad := (270 - dirDeg) * math.Pi / 180
	c, s := math.Cos(-rad), math.Sin(-rad)
	fx := make([]float64, len(xs))
	fy := make([]float64, len(ys))
	for i := range xs {
		fx[i] = xs[i]*c - ys[i]*s
		fy[i] = xs[i]*s + ys[i]*c
	}
	return fx, fy
}

// wakeLoss combines the velocity deficits of all upstream turbines on
// turbine i as a root sum of squares.
func wakeLoss(fx, fy []float64, i int, t Turbine) float64 {
	deficits := make([]float64, len(fx))
	for j := range fx {
		x := fx[i] - fx[j]
		if x <= 0 {
			continue
		}
		y := fy[i] - fy[j]
		sigma := wakeExpansion*x + t.Diameter/math.Sqrt(8)
		radical := 1 - t.Thrust/(8*sigma*sigma/(t.Diameter*t.Diameter))
		deficits[j] = (1 - math.Sqrt(radical)) * math.Exp(-0.5*(y/sigma)*(y/sigma))
	}
	return floats.Norm(deficits, 2)
}
