package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Variant selects the cost model calibration.
type Variant string

const (
	VariantOriginal Variant = "original"
	VariantAdjusted Variant = "adjusted"
)

// AdjustedFactor scales turbine manufacturing and maintenance cost under
// VariantAdjusted.
const AdjustedFactor = 40.01 / 92.3

// ParseVariant converts a string into a Variant. An empty string selects
// VariantOriginal.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case "", VariantOriginal:
		return VariantOriginal, nil
	case VariantAdjusted:
		return VariantAdjusted, nil
	default:
		return "", eris.Wrapf(ErrInvalidInput, "unknown variant %q (valid: original, adjusted)", s)
	}
}

// Adjusted reports whether the calibration correction applies.
func (v Variant) Adjusted() bool {
	return v == VariantAdjusted
}

// Factor returns the multiplier applied to turbine manufacturing and
// maintenance cost.
func (v Variant) Factor() float64 {
	if v.Adjusted() {
		return AdjustedFactor
	}
	return 1
}

// TurbineSpec describes a single wind turbine installation.
type TurbineSpec struct {
	RotorDiameter float64 `json:"rotor_diameter"` // meters
	RatedPower    float64 `json:"rated_power"`    // kilowatts
	HubHeight     float64 `json:"hub_height"`     // meters
	Country       string  `json:"country"`        // ISO 3166-1 alpha-3
	TurbineCount  int     `json:"turbine_count"`
	Variant       Variant `json:"variant"`
}

// RatedPowerMW returns the rated power in megawatts.
func (s TurbineSpec) RatedPowerMW() float64 {
	return s.RatedPower / 1000
}

// Validate rejects specs that no stage can price. It runs before any
// external lookup is made.
func (s TurbineSpec) Validate() error {
	if !(s.RotorDiameter > 0) {
		return eris.Wrapf(ErrInvalidInput, "rotor diameter must be positive, got %v", s.RotorDiameter)
	}
	if !(s.RatedPower > 0) {
		return eris.Wrapf(ErrInvalidInput, "rated power must be positive, got %v", s.RatedPower)
	}
	if !(s.HubHeight > 0) {
		return eris.Wrapf(ErrInvalidInput, "hub height must be positive, got %v", s.HubHeight)
	}
	if s.TurbineCount < 1 {
		return eris.Wrapf(ErrInvalidInput, "turbine count must be at least 1, got %d", s.TurbineCount)
	}
	if _, err := ParseCountry(s.Country); err != nil {
		return err
	}
	if _, err := ParseVariant(string(s.Variant)); err != nil {
		return err
	}
	return nil
}

// Normalize returns a copy with the country upper-cased and the variant in
// canonical spelling. An unknown variant is kept as given so Validate can
// reject it.
func (s TurbineSpec) Normalize() TurbineSpec {
	s.Country = strings.ToUpper(strings.TrimSpace(s.Country))
	if v, err := ParseVariant(string(s.Variant)); err == nil {
		s.Variant = v
	}
	return s
}
