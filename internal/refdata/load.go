package refdata

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sources locates each table. Empty entries fall back to the default file
// name inside Dir. Entries may be local paths or http(s)/ftp URLs.
type Sources struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	Wages        string `yaml:"wages" mapstructure:"wages"`
	Occupations  string `yaml:"occupations" mapstructure:"occupations"`
	Land         string `yaml:"land" mapstructure:"land"`
	Transport    string `yaml:"transport" mapstructure:"transport"`
	Landfill     string `yaml:"landfill" mapstructure:"landfill"`
	Tax          string `yaml:"tax" mapstructure:"tax"`
	Transmission string `yaml:"transmission" mapstructure:"transmission"`
	PerDiem      string `yaml:"per_diem" mapstructure:"per_diem"`
}

// Default dataset file names.
const (
	FileWages        = "wages.csv"
	FileOccupations  = "oww3.csv"
	FileLand         = "apri_lrnt_linear.csv"
	FileTransport    = "transport.csv"
	FileLandfill     = "landfillCost.csv"
	FileTax          = "corporate.csv"
	FileTransmission = "transmissionCost.csv"
	FilePerDiem      = "per_diem.csv"
)

func (s Sources) resolve(override, file string) string {
	if override != "" {
		if strings.Contains(override, "://") || filepath.IsAbs(override) || s.Dir == "" {
			return override
		}
		return filepath.Join(s.Dir, override)
	}
	if strings.Contains(s.Dir, "://") {
		return strings.TrimRight(s.Dir, "/") + "/" + file
	}
	return filepath.Join(s.Dir, file)
}

// Tables holds every country-reference dataset.
type Tables struct {
	Wages        *Wages
	Occupations  *Occupations
	Land         *Land
	Transport    *Transport
	Landfill     *Landfill
	Tax          *Tax
	Transmission *Transmission
	PerDiem      *PerDiem
}

// Empty returns tables with no rows. Every lookup reports unavailable data.
func Empty() *Tables {
	return &Tables{
		Wages:        NewWages(),
		Occupations:  NewOccupations(),
		Land:         NewLand(),
		Transport:    NewTransport(),
		Landfill:     NewLandfill(nil),
		Tax:          NewTax(nil),
		Transmission: NewTransmission(nil),
		PerDiem:      NewPerDiem(nil),
	}
}

// Load reads every table concurrently. A local file that does not exist
// yields an empty table; any other read or parse failure is returned.
func Load(ctx context.Context, src Sources, opener Opener) (*Tables, error) {
	t := Empty()
	g, gctx := errgroup.WithContext(ctx)

	load := func(name, path string, parse func(*frame) error, required ...string) {
		g.Go(func() error {
			rows, err := opener.ReadRows(gctx, path)
			if errors.Is(err, errMissing) {
				zap.L().Warn("refdata: table not found, lookups will fall back",
					zap.String("table", name),
					zap.String("path", path),
				)
				return nil
			}
			if err != nil {
				return err
			}
			f, err := newFrame(rows, required...)
			if err != nil {
				return eris.Wrapf(err, "refdata: %s", path)
			}
			if err := parse(f); err != nil {
				return eris.Wrapf(err, "refdata: %s", path)
			}
			zap.L().Debug("refdata: table loaded",
				zap.String("table", name),
				zap.Int("rows", len(f.rows)),
			)
			return nil
		})
	}

	load("wages", src.resolve(src.Wages, FileWages), func(f *frame) error {
		t.Wages = parseWages(f)
		return nil
	}, "ref_area", "classif1", "classif2", "time", "obs_value")

	load("occupations", src.resolve(src.Occupations, FileOccupations), func(f *frame) error {
		t.Occupations = parseOccupations(f)
		return nil
	}, "country_code", "isco88", "y0", "hw3wl_us")

	load("land", src.resolve(src.Land, FileLand), func(f *frame) error {
		t.Land = parseLand(f)
		return nil
	}, "geo", "agriprod", "unit", "TIME_PERIOD", "OBS_VALUE")

	load("transport", src.resolve(src.Transport, FileTransport), func(f *frame) error {
		t.Transport = parseTransport(f)
		return nil
	}, "start_nuts", "end_nuts", "distance_road", "total_cost")

	load("landfill", src.resolve(src.Landfill, FileLandfill), func(f *frame) error {
		t.Landfill = NewLandfill(parseKeyed(f, "ISO2", "total_charge"))
		return nil
	}, "ISO2", "total_charge")

	load("tax", src.resolve(src.Tax, FileTax), func(f *frame) error {
		t.Tax = NewTax(parseKeyed(f, "ISO3", "Corporate Tax Rate"))
		return nil
	}, "ISO3", "Corporate Tax Rate")

	load("transmission", src.resolve(src.Transmission, FileTransmission), func(f *frame) error {
		t.Transmission = NewTransmission(parseKeyed(f, "ISO", "value"))
		return nil
	}, "ISO", "value")

	load("per_diem", src.resolve(src.PerDiem, FilePerDiem), func(f *frame) error {
		t.PerDiem = NewPerDiem(parseKeyed(f, "ISO", "Per diem rate"))
		return nil
	}, "ISO", "Per diem rate")

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

func parseWages(f *frame) *Wages {
	w := NewWages()
	for _, row := range f.rows {
		v, ok := f.num(row, "obs_value")
		if !ok {
			continue
		}
		y, ok := f.year(row, "time")
		if !ok {
			continue
		}
		w.rows = append(w.rows, WageRow{
			Area:     f.str(row, "ref_area"),
			Skill:    f.str(row, "classif1"),
			Currency: WageCurrency(f.str(row, "classif2")),
			Year:     y,
			Value:    v,
		})
	}
	return w
}

func parseOccupations(f *frame) *Occupations {
	o := NewOccupations()
	for _, row := range f.rows {
		v, ok := f.num(row, "hw3wl_us")
		if !ok {
			continue
		}
		y, ok := f.year(row, "y0")
		if !ok {
			continue
		}
		o.rows = append(o.rows, OccupationRow{
			Country:   f.str(row, "country_code"),
			Codes:     splitCodes(f.str(row, "isco88")),
			Year:      y,
			HourlyUSD: v,
		})
	}
	return o
}

func parseLand(f *frame) *Land {
	l := NewLand()
	for _, row := range f.rows {
		v, ok := f.num(row, "OBS_VALUE")
		if !ok {
			continue
		}
		y, ok := f.year(row, "TIME_PERIOD")
		if !ok {
			continue
		}
		l.rows = append(l.rows, LandRow{
			Geo:     f.str(row, "geo"),
			Product: f.str(row, "agriprod"),
			Unit:    f.str(row, "unit"),
			Year:    y,
			Value:   v,
		})
	}
	return l
}

func parseTransport(f *frame) *Transport {
	t := NewTransport()
	for _, row := range f.rows {
		d, ok := f.num(row, "distance_road")
		if !ok {
			continue
		}
		c, ok := f.num(row, "total_cost")
		if !ok {
			continue
		}
		t.routes = append(t.routes, TransportRoute{
			StartNUTS:  f.str(row, "start_nuts"),
			EndNUTS:    f.str(row, "end_nuts"),
			DistanceKm: d,
			TotalCost:  c,
		})
	}
	return t
}

// parseKeyed keeps the first numeric value per key.
func parseKeyed(f *frame, keyCol, valueCol string) map[string]float64 {
	out := make(map[string]float64)
	for _, row := range f.rows {
		k := strings.ToUpper(f.str(row, keyCol))
		if k == "" {
			continue
		}
		if _, seen := out[k]; seen {
			continue
		}
		v, ok := f.num(row, valueCol)
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}
