// Package refdata loads the static country-reference datasets: wage
// surveys, land values, transport and landfill costs, tax rates,
// transmission fees and per-diem rates.
package refdata

import (
	"sort"
	"strings"

	"github.com/sells-group/windcost/internal/model"
)

// WageCurrency selects the ILOSTAT currency classification.
type WageCurrency string

const (
	WageUSD   WageCurrency = "CUR_TYPE_USD"
	WageLocal WageCurrency = "CUR_TYPE_LCU"
)

// SkillTotal is the ILOSTAT classification covering all skill levels.
const SkillTotal = "OCU_SKILL_TOTAL"

// WageRow is one ILOSTAT mean hourly earnings observation.
type WageRow struct {
	Area     string
	Skill    string
	Currency WageCurrency
	Year     int
	Value    float64
}

// WageObservation is an average wage and the year it was observed.
type WageObservation struct {
	Year  int
	Value float64
}

// Wages is the ILOSTAT mean hourly earnings table.
type Wages struct {
	rows []WageRow
}

// NewWages builds a Wages table from rows.
func NewWages(rows ...WageRow) *Wages {
	return &Wages{rows: rows}
}

// Len returns the number of rows.
func (w *Wages) Len() int { return len(w.rows) }

// Average returns the most recent all-skills average wage for country in
// the given currency classification.
func (w *Wages) Average(country string, currency WageCurrency) (WageObservation, error) {
	best := WageObservation{}
	found := false
	for _, r := range w.rows {
		if r.Area != country || r.Skill != SkillTotal || r.Currency != currency {
			continue
		}
		if !found || r.Year > best.Year {
			best = WageObservation{Year: r.Year, Value: r.Value}
			found = true
		}
	}
	if !found {
		return WageObservation{}, model.Unavailable("refdata: average wage %s (%s)", country, currency)
	}
	return best, nil
}

// OccupationRow is one Occupational Wages around the World observation.
// Codes holds every ISCO-88 code the row covers.
type OccupationRow struct {
	Country   string
	Codes     []string
	Year      int
	HourlyUSD float64
}

// OccupationWage is an occupation-specific hourly wage.
type OccupationWage struct {
	Year      int
	HourlyUSD float64
}

// MinOccupationYear excludes survey years at or before it.
const MinOccupationYear = 1995

// Occupations is the occupational wage survey.
type Occupations struct {
	rows []OccupationRow
}

// NewOccupations builds an Occupations table from rows.
func NewOccupations(rows ...OccupationRow) *Occupations {
	return &Occupations{rows: rows}
}

// Len returns the number of rows.
func (o *Occupations) Len() int { return len(o.rows) }

// MostRecent returns the latest post-1995 hourly wage for an ISCO-88 code.
func (o *Occupations) MostRecent(country, isco string) (OccupationWage, error) {
	best := OccupationWage{}
	found := false
	for _, r := range o.rows {
		if r.Country != country || r.Year <= MinOccupationYear || !containsCode(r.Codes, isco) {
			continue
		}
		if !found || r.Year > best.Year {
			best = OccupationWage{Year: r.Year, HourlyUSD: r.HourlyUSD}
			found = true
		}
	}
	if !found {
		return OccupationWage{}, model.Unavailable("refdata: occupation wage %s isco88=%s", country, isco)
	}
	return best, nil
}

// Countries returns the distinct country codes present.
func (o *Occupations) Countries() []string {
	seen := make(map[string]bool)
	for _, r := range o.rows {
		seen[r.Country] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// splitCodes splits a slash-separated ISCO-88 list.
func splitCodes(s string) []string {
	parts := strings.Split(s, "/")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Eurostat land price dataset keys.
const (
	ArableLand  = "ARA_J0000"
	EuroPerHa   = "EUR_HA"
	LandYearRef = 2019
)

// LandRow is one Eurostat agricultural land rent observation.
type LandRow struct {
	Geo     string
	Product string
	Unit    string
	Year    int
	Value   float64
}

// Land is the Eurostat land price table.
type Land struct {
	rows []LandRow
}

// NewLand builds a Land table from rows.
func NewLand(rows ...LandRow) *Land {
	return &Land{rows: rows}
}

// Len returns the number of rows.
func (l *Land) Len() int { return len(l.rows) }

// Value returns the arable land value (EUR/ha) for a NUTS country code.
func (l *Land) Value(geo string, year int) (float64, error) {
	for _, r := range l.rows {
		if r.Geo == geo && r.Product == ArableLand && r.Unit == EuroPerHa && r.Year == year {
			return r.Value, nil
		}
	}
	return 0, model.Unavailable("refdata: arable land value %s %d", geo, year)
}

// TransportRoute is one road transport cost observation between NUTS
// regions.
type TransportRoute struct {
	StartNUTS  string
	EndNUTS    string
	DistanceKm float64
	TotalCost  float64
}

// Transport is the road transport cost table.
type Transport struct {
	routes []TransportRoute
}

// NewTransport builds a Transport table from routes.
func NewTransport(routes ...TransportRoute) *Transport {
	return &Transport{routes: routes}
}

// Len returns the number of routes.
func (t *Transport) Len() int { return len(t.routes) }

// Closest returns the domestic route in the given NUTS country whose road
// distance is closest to targetKm.
func (t *Transport) Closest(nutsCountry string, targetKm float64) (TransportRoute, error) {
	var best TransportRoute
	bestDiff := -1.0
	for _, r := range t.routes {
		if !strings.HasPrefix(r.StartNUTS, nutsCountry) || len(r.StartNUTS) < 2 || len(r.EndNUTS) < 2 {
			continue
		}
		if r.StartNUTS[:2] != r.EndNUTS[:2] {
			continue
		}
		diff := r.DistanceKm - targetKm
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = r, diff
		}
	}
	if bestDiff < 0 {
		return TransportRoute{}, model.Unavailable("refdata: domestic transport route %s", nutsCountry)
	}
	return best, nil
}

// keyed is a single-value-per-country table.
type keyed struct {
	name   string
	values map[string]float64
}

func newKeyed(name string, values map[string]float64) keyed {
	if values == nil {
		values = make(map[string]float64)
	}
	return keyed{name: name, values: values}
}

func (k keyed) lookup(code string) (float64, error) {
	v, ok := k.values[code]
	if !ok {
		return 0, model.Unavailable("refdata: %s %s", k.name, code)
	}
	return v, nil
}

// Len returns the number of countries.
func (k keyed) Len() int { return len(k.values) }

// Landfill holds landfill charges (EUR per tonne, 2012) by ISO alpha-2.
type Landfill struct{ keyed }

// NewLandfill builds a Landfill table.
func NewLandfill(byISO2 map[string]float64) *Landfill {
	return &Landfill{newKeyed("landfill charge", byISO2)}
}

// Charge returns the total landfill charge.
func (l *Landfill) Charge(iso2 string) (float64, error) { return l.lookup(iso2) }

// Tax holds corporate tax rates (percent) by ISO alpha-3.
type Tax struct{ keyed }

// NewTax builds a Tax table.
func NewTax(byISO3 map[string]float64) *Tax {
	return &Tax{newKeyed("corporate tax rate", byISO3)}
}

// Rate returns the corporate tax rate in percent.
func (t *Tax) Rate(iso3 string) (float64, error) { return t.lookup(iso3) }

// Transmission holds grid-injection fees (EUR/MWh, 2019) by ISO alpha-3.
type Transmission struct{ keyed }

// NewTransmission builds a Transmission table.
func NewTransmission(byISO3 map[string]float64) *Transmission {
	return &Transmission{newKeyed("transmission fee", byISO3)}
}

// Fee returns the grid-injection fee.
func (t *Transmission) Fee(iso3 string) (float64, error) { return t.lookup(iso3) }

// PerDiem holds daily allowance rates (EUR, 2017) by ISO alpha-3.
type PerDiem struct{ keyed }

// NewPerDiem builds a PerDiem table.
func NewPerDiem(byISO3 map[string]float64) *PerDiem {
	return &PerDiem{newKeyed("per diem rate", byISO3)}
}

// Rate returns the daily allowance.
func (p *PerDiem) Rate(iso3 string) (float64, error) { return p.lookup(iso3) }
