package refdata

import (
	"fmt"

	"github.com/sells-group/windcost/internal/model"
)

// CoverageLine reports whether one table has data for a country.
type CoverageLine struct {
	Table     string `json:"table"`
	Key       string `json:"key"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// Coverage reports, per table, whether a lookup for country would succeed.
func (t *Tables) Coverage(c model.Country) []CoverageLine {
	var out []CoverageLine
	add := func(table, key string, detail string, err error) {
		line := CoverageLine{Table: table, Key: key, Available: err == nil, Detail: detail}
		if err != nil {
			line.Detail = err.Error()
		}
		out = append(out, line)
	}

	w, err := t.Wages.Average(c.ISO3, WageUSD)
	add("wages", c.ISO3+" USD", fmt.Sprintf("%.2f/h (%d)", w.Value, w.Year), err)
	w, err = t.Wages.Average(c.ISO3, WageLocal)
	add("wages", c.ISO3+" LCU", fmt.Sprintf("%.2f/h (%d)", w.Value, w.Year), err)

	var occErr error = model.Unavailable("refdata: no occupation rows for %s", c.ISO3)
	for _, code := range t.Occupations.Countries() {
		if code == c.ISO3 {
			occErr = nil
			break
		}
	}
	add("occupations", c.ISO3, "", occErr)

	v, err := t.Land.Value(c.NUTS(), LandYearRef)
	add("land", c.NUTS(), fmt.Sprintf("%.2f EUR/ha", v), err)

	r, err := t.Transport.Closest(c.NUTS(), 300)
	add("transport", c.NUTS(), fmt.Sprintf("%s-%s %.0f km", r.StartNUTS, r.EndNUTS, r.DistanceKm), err)

	v, err = t.Landfill.Charge(c.ISO2)
	add("landfill", c.ISO2, fmt.Sprintf("%.2f EUR/t", v), err)

	v, err = t.Tax.Rate(c.ISO3)
	add("tax", c.ISO3, fmt.Sprintf("%.2f%%", v), err)

	v, err = t.Transmission.Fee(c.ISO3)
	add("transmission", c.ISO3, fmt.Sprintf("%.2f EUR/MWh", v), err)

	v, err = t.PerDiem.Rate(c.ISO3)
	add("per_diem", c.ISO3, fmt.Sprintf("%.2f EUR/day", v), err)

	return out
}
