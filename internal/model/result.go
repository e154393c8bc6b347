package model

import "time"

// CapexBreakdown itemizes the one-time capital cost.
type CapexBreakdown struct {
	BalanceOfSystem Amount `json:"balance_of_system"`
	Turbine         Amount `json:"turbine"`        // manufacturing cost before variant scaling
	TurbineScaled   Amount `json:"turbine_scaled"` // manufacturing cost after variant scaling
	Total           Amount `json:"total"`
}

// OpexBreakdown itemizes the annual operating cost.
type OpexBreakdown struct {
	LandLease    Amount `json:"land_lease"`
	Insurance    Amount `json:"insurance"`
	Transmission Amount `json:"transmission"`
	Maintenance  Amount `json:"maintenance"` // after variant scaling
	Total        Amount `json:"total"`
}

// DecomBreakdown itemizes the end-of-life cost. Fallback is true when
// regional data was unavailable and the total was defined as zero.
type DecomBreakdown struct {
	Crane    Amount `json:"crane"`
	Blades   Amount `json:"blades"`
	Scrap    Amount `json:"scrap"`
	Total    Amount `json:"total"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

// Result is the outcome of one LCOE computation.
type Result struct {
	Spec             TurbineSpec    `json:"spec"`
	LCOE             float64        `json:"lcoe"` // USD per MWh, reference year prices
	DiscountRate     float64        `json:"discount_rate"`
	AnnualYieldKWh   float64        `json:"annual_yield_kwh"`
	Capex            CapexBreakdown `json:"capex"`
	Opex             OpexBreakdown  `json:"opex"`
	Decom            DecomBreakdown `json:"decommissioning"`
	DiscountedCost   float64        `json:"discounted_cost"`
	DiscountedEnergy float64        `json:"discounted_energy_kwh"`
	LifetimeYears    int            `json:"lifetime_years"`
}

// RunStatus represents the state of a stored computation.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a persisted LCOE computation.
type Run struct {
	ID        string      `json:"id"`
	Spec      TurbineSpec `json:"spec"`
	Status    RunStatus   `json:"status"`
	Result    *Result     `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
