// Package farm estimates annual energy production of a wind farm layout
// with the IEA Wind Task 37 simplified Gaussian wake model.
package farm

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/windcost/internal/model"
)

// Turbine is a power and thrust description of one turbine model.
type Turbine struct {
	Diameter     float64 // m
	HubHeight    float64 // m
	RatedPowerKW float64
	CutIn        float64 // m/s
	RatedSpeed   float64 // m/s
	CutOut       float64 // m/s
	Thrust       float64 // constant thrust coefficient
}

// ReferenceTurbine returns the IEA 3.35 MW onshore reference turbine.
func ReferenceTurbine() Turbine {
	return Turbine{
		Diameter:     130,
		HubHeight:    110,
		RatedPowerKW: 3350,
		CutIn:        4,
		RatedSpeed:   9.8,
		CutOut:       25,
		Thrust:       8.0 / 9.0,
	}
}

// Power returns the electrical output in kW at wind speed ws.
func (t Turbine) Power(ws float64) float64 {
	switch {
	case ws >= t.CutIn && ws < t.RatedSpeed:
		return t.RatedPowerKW * math.Pow((ws-t.CutIn)/(t.RatedSpeed-t.CutIn), 3)
	case ws >= t.RatedSpeed && ws < t.CutOut:
		return t.RatedPowerKW
	default:
		return 0
	}
}

// WindRose is a directional frequency distribution at one wind speed.
type WindRose struct {
	Directions []float64 // degrees, meteorological (0 = north, clockwise)
	Frequency  []float64 // fraction of the year per direction
	Speed      float64   // m/s
}

// Validate checks bins line up and frequencies sum to one.
func (w WindRose) Validate() error {
	if len(w.Directions) == 0 || len(w.Directions) != len(w.Frequency) {
		return eris.Wrapf(model.ErrInvalidInput, "farm: wind rose has %d directions and %d frequencies",
			len(w.Directions), len(w.Frequency))
	}
	sum := 0.0
	for _, f := range w.Frequency {
		if f < 0 {
			return eris.Wrap(model.ErrInvalidInput, "farm: negative wind frequency")
		}
		sum += f
	}
	if math.Abs(sum-1) > 1e-6 {
		return eris.Wrapf(model.ErrInvalidInput, "farm: wind frequencies sum to %v", sum)
	}
	if w.Speed <= 0 {
		return eris.Wrap(model.ErrInvalidInput, "farm: wind speed must be positive")
	}
	return nil
}

// Site is a farm boundary and its wind climate.
type Site struct {
	Boundary *geom.Polygon
	Rose     WindRose
}

// Task 37 case study constants.
const (
	ReferenceTurbineCount = 16
	ReferenceRadius       = 1300.0 // m
	boundaryVertices      = 360
)

// ReferenceRose returns the Task 37 16-sector wind rose.
func ReferenceRose() WindRose {
	freq := []float64{
		0.025, 0.024, 0.029, 0.036, 0.063, 0.065, 0.100, 0.122,
		0.063, 0.038, 0.039, 0.083, 0.213, 0.046, 0.032, 0.022,
	}
	dirs := make([]float64, len(freq))
	for i := range dirs {
		dirs[i] = 22.5 * float64(i)
	}
	return WindRose{Directions: dirs, Frequency: freq, Speed: 9.8}
}

// ReferenceSite returns the Task 37 circular site.
func ReferenceSite() Site {
	return Site{Boundary: Circle(0, 0, ReferenceRadius, boundaryVertices), Rose: ReferenceRose()}
}

// Circle returns a closed polygon with n vertices on the given circle.
func Circle(cx, cy, r float64, n int) *geom.Polygon {
	flat := make([]float64, 0, 2*(n+1))
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		flat = append(flat, cx+r*math.Cos(a), cy+r*math.Sin(a))
	}
	flat = append(flat, flat[0], flat[1])
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
}

// BaselineLayout returns the Task 37 16-turbine starting layout: one
// turbine at the centre, five on a 650 m ring and ten on the boundary.
func BaselineLayout() []*geom.Point {
	pts := []*geom.Point{geom.NewPointFlat(geom.XY, []float64{0, 0})}
	ring := func(r float64, n int) {
		for i := 0; i < n; i++ {
			a := 2 * math.Pi * float64(i) / float64(n)
			pts = append(pts, geom.NewPointFlat(geom.XY, []float64{r * math.Cos(a), r * math.Sin(a)}))
		}
	}
	ring(ReferenceRadius/2, 5)
	ring(ReferenceRadius, 10)
	return pts
}

// Contains reports whether (x, y) lies inside or on the polygon's outer
// ring, within tol metres.
func Contains(p *geom.Polygon, x, y, tol float64) bool {
	if p == nil || p.NumLinearRings() == 0 {
		return false
	}
	ring := p.LinearRing(0).FlatCoords()
	n := len(ring) / 2
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[2*i], ring[2*i+1]
		xj, yj := ring[2*j], ring[2*j+1]
		if segmentDistance(x, y, xi, yi, xj, yj) <= tol {
			return true
		}
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func segmentDistance(px, py, ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}
