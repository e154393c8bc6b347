// Package report renders LCOE results as a table, JSON or CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/windcost/internal/model"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat converts a flag value into a Format. An empty string selects
// FormatTable.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", eris.Errorf("report: unknown format %q (valid: table, json, csv)", s)
	}
}

// Line is one itemized figure of a result.
type Line struct {
	Section string
	Item    string
	Value   decimal.Decimal
	Unit    string
}

// Money rounds a USD amount to cents.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Lines itemizes r in display order.
func Lines(r *model.Result) []Line {
	usd := func(section, item string, a model.Amount) Line {
		return Line{Section: section, Item: item, Value: Money(a.Value), Unit: "USD"}
	}
	return []Line{
		{Section: "result", Item: "lcoe", Value: Money(r.LCOE), Unit: "USD/MWh"},
		{Section: "result", Item: "discount_rate", Value: decimal.NewFromFloat(r.DiscountRate).Round(6), Unit: "fraction"},
		{Section: "result", Item: "annual_yield", Value: decimal.NewFromFloat(r.AnnualYieldKWh).Round(0), Unit: "kWh"},
		{Section: "result", Item: "lifetime", Value: decimal.NewFromInt(int64(r.LifetimeYears)), Unit: "years"},
		usd("capex", "balance_of_system", r.Capex.BalanceOfSystem),
		usd("capex", "turbine", r.Capex.Turbine),
		usd("capex", "turbine_scaled", r.Capex.TurbineScaled),
		usd("capex", "total", r.Capex.Total),
		usd("opex", "land_lease", r.Opex.LandLease),
		usd("opex", "insurance", r.Opex.Insurance),
		usd("opex", "transmission", r.Opex.Transmission),
		usd("opex", "maintenance", r.Opex.Maintenance),
		usd("opex", "total", r.Opex.Total),
		usd("decommissioning", "crane", r.Decom.Crane),
		usd("decommissioning", "blades", r.Decom.Blades),
		usd("decommissioning", "scrap", r.Decom.Scrap),
		usd("decommissioning", "total", r.Decom.Total),
		{Section: "discounted", Item: "cost", Value: Money(r.DiscountedCost), Unit: "USD"},
		{Section: "discounted", Item: "energy", Value: decimal.NewFromFloat(r.DiscountedEnergy).Round(0), Unit: "kWh"},
	}
}

// Write renders r to w in format f.
func Write(w io.Writer, r *model.Result, f Format) error {
	if r == nil {
		return eris.New("report: nil result")
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(r), "report: encode json")
	case FormatCSV:
		return writeCSV(w, r)
	case FormatTable, "":
		return writeTable(w, r)
	default:
		return eris.Errorf("report: unknown format %q", f)
	}
}

func writeTable(out io.Writer, r *model.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	s := r.Spec
	_, _ = fmt.Fprintf(w, "Turbine:\t%s %.0f kW, rotor %.0f m, hub %.0f m, %s variant\t\n",
		s.Country, s.RatedPower, s.RotorDiameter, s.HubHeight, s.Variant)

	section := ""
	for _, l := range Lines(r) {
		if l.Section != section {
			section = l.Section
			_, _ = fmt.Fprintf(w, "%s\t\t\t\n", strings.ToUpper(section))
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t\n", l.Item, l.Value.StringFixed(places(l)), l.Unit)
	}
	if r.Decom.Fallback {
		_, _ = fmt.Fprintf(w, "Note:\tdecommissioning assumed zero (%s)\t\t\n", r.Decom.Reason)
	}
	return eris.Wrap(w.Flush(), "report: write table")
}

func writeCSV(out io.Writer, r *model.Result) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"section", "item", "value", "unit"}); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, l := range Lines(r) {
		if err := w.Write([]string{l.Section, l.Item, l.Value.String(), l.Unit}); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}

func places(l Line) int32 {
	switch l.Unit {
	case "kWh", "years":
		return 0
	case "fraction":
		return 4
	default:
		return 2
	}
}
