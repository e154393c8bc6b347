package lcoe

import "math"

// DefaultLifetime is the operating horizon in years.
const DefaultLifetime = 20

// Schedule maps each year of the horizon to its discount factor.
type Schedule struct {
	Rate  float64
	Years int
}

// NewSchedule creates a Schedule. A non-positive years selects
// DefaultLifetime.
func NewSchedule(rate float64, years int) Schedule {
	if years <= 0 {
		years = DefaultLifetime
	}
	return Schedule{Rate: rate, Years: years}
}

// Factor returns 1/(1+rate)^t.
func (s Schedule) Factor(t int) float64 {
	return 1 / math.Pow(1+s.Rate, float64(t))
}

// Factors returns the factor of every year from 0 to Years inclusive.
func (s Schedule) Factors() []float64 {
	out := make([]float64, s.Years+1)
	for t := range out {
		out[t] = s.Factor(t)
	}
	return out
}

// Totals are the discounted lifetime cost (USD) and energy (kWh).
type Totals struct {
	Cost   float64
	Energy float64
}

// LCOE returns cost per MWh. It is 0 when Energy is 0; Compute rejects
// that case before calling it.
func (t Totals) LCOE() float64 {
	if t.Energy == 0 {
		return 0
	}
	return t.Cost / t.Energy * 1000
}

// Discount accumulates lifetime cost and energy. Capital cost is incurred
// at year 0 and not discounted; operating cost and yield accrue in years
// 1 through Years; decommissioning is added once in the final year.
func (s Schedule) Discount(capex, opex, decom, annualYield float64) Totals {
	tot := Totals{Cost: capex}
	for t := 1; t <= s.Years; t++ {
		f := s.Factor(t)
		cost := opex
		if t == s.Years {
			cost += decom
		}
		tot.Cost += cost * f
		tot.Energy += annualYield * f
	}
	return tot
}
