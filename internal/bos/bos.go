// Package bos prepares regional inputs for the balance-of-system cost
// model and reads back its per-turbine cost breakdown.
package bos

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/windcost/internal/model"
)

// ErrTemplateMissing reports that no baseline project workbook was loaded.
var ErrTemplateMissing = eris.Wrap(model.ErrExternalTool, "bos: project template not loaded")

// Project is the turbine description written to the project list.
type Project struct {
	RatingMW      int `json:"rating_mw"`
	HubHeight     int `json:"hub_height"`
	RotorDiameter int `json:"rotor_diameter"`
	TurbineCount  int `json:"turbine_count"`
}

// WageSource records where a crew wage came from.
type WageSource string

const (
	WageOccupation WageSource = "occupation"
	WageScaled     WageSource = "wage_factor"
	WageTemplate   WageSource = "template"
)

// CrewRate is the hourly wage written to one crew_price row.
type CrewRate struct {
	Row       int        `json:"row"`
	Name      string     `json:"name"`
	ISCO88    string     `json:"isco88"`
	HourlyUSD float64    `json:"hourly_usd"`
	Source    WageSource `json:"source"`
}

// EquipmentPrice is the price written to one equip_price row.
type EquipmentPrice struct {
	Row      int     `json:"row"`
	PriceUSD float64 `json:"price_usd"`
}

// Input is the complete regional input for one estimator run. It is built
// fresh per computation and never shared.
type Input struct {
	Project        Project          `json:"project"`
	Crew           []CrewRate       `json:"crew"`
	PerDiemUSD     float64          `json:"per_diem_usd"`
	PerDiemRows    []int            `json:"per_diem_rows"`
	Equipment      []EquipmentPrice `json:"equipment"`
	DevelopmentUSD float64          `json:"development_usd"`
}

// Validate checks that the input can be written to a workbook.
func (in Input) Validate() error {
	if in.Project.RatingMW < 0 || in.Project.HubHeight <= 0 || in.Project.RotorDiameter <= 0 {
		return eris.Wrapf(model.ErrInvalidInput, "bos: invalid project %+v", in.Project)
	}
	if len(in.Crew) == 0 {
		return eris.Wrap(model.ErrInvalidInput, "bos: no crew rates")
	}
	return nil
}

// Line is one row of the estimator's cost output.
type Line struct {
	Module         string  `json:"module"`
	Type           string  `json:"type"`
	CostPerTurbine float64 `json:"cost_per_turbine"`
}

// Breakdown is the estimator's per-turbine cost output.
type Breakdown struct {
	Lines []Line  `json:"lines"`
	Total float64 `json:"total"` // USD per turbine
}

// Estimator runs the balance-of-system cost model.
type Estimator interface {
	Estimate(ctx context.Context, in Input) (*Breakdown, error)
}

// StaticEstimator returns a fixed breakdown and records the inputs it was
// given.
type StaticEstimator struct {
	Result *Breakdown
	Err    error

	mu     sync.Mutex
	inputs []Input
}

// NewStaticEstimator returns an estimator that always reports total.
func NewStaticEstimator(total float64) *StaticEstimator {
	return &StaticEstimator{Result: &Breakdown{
		Lines: []Line{{Module: "Static", Type: "Total", CostPerTurbine: total}},
		Total: total,
	}}
}

// Estimate implements Estimator.
func (s *StaticEstimator) Estimate(ctx context.Context, in Input) (*Breakdown, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.inputs = append(s.inputs, in)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Result == nil {
		return nil, eris.Wrap(model.ErrExternalTool, "bos: static estimator has no result")
	}
	out := *s.Result
	out.Lines = append([]Line(nil), s.Result.Lines...)
	return &out, nil
}

// Inputs returns every input received so far.
func (s *StaticEstimator) Inputs() []Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Input(nil), s.inputs...)
}
