package capex

import "math"

// TurbineCostYear is the price year of the manufacturing cost regressions.
const TurbineCostYear = 2006

// BladeMass returns the baseline mass in kg of all three blades.
func BladeMass(rotorDiameter float64) float64 {
	return 3 * 0.1452 * math.Pow(rotorDiameter/2, 2.9158)
}

// NacelleMass returns the nacelle cover mass in kg.
func NacelleMass(ratedKW float64) float64 {
	return NacelleCoverCost(ratedKW) / 10
}

// NacelleCoverCost returns the nacelle cover cost in 2006 USD.
func NacelleCoverCost(ratedKW float64) float64 {
	return 11.537*ratedKW + 3849.7
}

// Components is the manufacturing cost of each turbine component in 2006
// USD.
type Components struct {
	Blades            float64 `json:"blades"`
	Hub               float64 `json:"hub"`
	PitchSystem       float64 `json:"pitch_system"`
	NoseCone          float64 `json:"nose_cone"`
	LowSpeedShaft     float64 `json:"low_speed_shaft"`
	MainBearings      float64 `json:"main_bearings"`
	BrakeCoupling     float64 `json:"brake_coupling"`
	Generator         float64 `json:"generator"`
	PowerElectronics  float64 `json:"power_electronics"`
	YawSystem         float64 `json:"yaw_system"`
	Mainframe         float64 `json:"mainframe"`
	PlatformRailings  float64 `json:"platform_railings"`
	ElectricalConnect float64 `json:"electrical_connections"`
	HydraulicCooling  float64 `json:"hydraulic_cooling"`
	NacelleCover      float64 `json:"nacelle_cover"`
	ControlSystem     float64 `json:"control_system"`
	Tower             float64 `json:"tower"`
}

// TurbineComponents evaluates the NREL cost and scaling regressions for a
// direct-drive turbine.
func TurbineComponents(rotorDiameter, ratedKW, hubHeight float64) Components {
	d := rotorDiameter
	r := d / 2
	blades := BladeMass(d)
	mainframe := 1.228 * math.Pow(d, 1.953)
	bearing := (d*8/600 - 0.033) * 0.0092 * math.Pow(d, 2.5)
	tower := 0.3973*(math.Pi*r*r)*hubHeight - 1414

	return Components{
		Blades:            3 * ((0.4019*math.Pow(r, 3) - 955.24) + 2.7445*math.Pow(r, 2.5025)) / (1 - 0.28),
		Hub:               (0.954*(blades/3) + 5680.3) * 4.25,
		PitchSystem:       2.28 * (0.2106 * math.Pow(d, 2.6578)),
		NoseCone:          (18.5*d - 520.5) * 5.57,
		LowSpeedShaft:     0.01 * math.Pow(d, 2.887),
		MainBearings:      2 * bearing * 17.6,
		BrakeCoupling:     1.9894*ratedKW - 0.1141,
		Generator:         ratedKW * 219.33,
		PowerElectronics:  ratedKW * 79,
		YawSystem:         2 * (0.0339 * math.Pow(d, 2.964)),
		Mainframe:         627.28 * math.Pow(d, 0.85),
		PlatformRailings:  0.125 * mainframe * 8.7,
		ElectricalConnect: ratedKW * 40,
		HydraulicCooling:  ratedKW * 12,
		NacelleCover:      NacelleCoverCost(ratedKW),
		ControlSystem:     35000,
		Tower:             tower * 1.5,
	}
}

// Total sums the components that make up the turbine price. The low-speed
// shaft is excluded; the direct-drive model has none.
func (c Components) Total() float64 {
	return c.Blades + c.Hub + c.PitchSystem + c.NoseCone + c.MainBearings +
		c.BrakeCoupling + c.Generator + c.PowerElectronics + c.YawSystem +
		c.Mainframe + c.PlatformRailings + c.ElectricalConnect +
		c.HydraulicCooling + c.NacelleCover + c.ControlSystem + c.Tower
}
