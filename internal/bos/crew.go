package bos

import (
	_ "embed"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Fallback policies for a crew row with no occupation-specific wage.
const (
	PolicyWageFactor = "wage_factor"
	PolicyTemplate   = "template"
)

//go:embed crew.yaml
var crewYAML []byte

// CrewRole is one crew_price sheet row.
type CrewRole struct {
	Row    int    `yaml:"row"`
	Name   string `yaml:"name"`
	ISCO88 string `yaml:"isco88"`
	Policy string `yaml:"policy"`
}

// RowRange is an inclusive range of sheet rows.
type RowRange struct {
	First int `yaml:"first"`
	Last  int `yaml:"last"`
}

// Rows returns every row number in the range.
func (r RowRange) Rows() []int {
	out := make([]int, 0, r.Last-r.First+1)
	for i := r.First; i <= r.Last; i++ {
		out = append(out, i)
	}
	return out
}

// Layout describes the regional cells of the project workbook.
type Layout struct {
	Crew          []CrewRole `yaml:"crew"`
	PerDiemRows   RowRange   `yaml:"per_diem_rows"`
	EquipmentRows RowRange   `yaml:"equipment_rows"`
}

var (
	layoutOnce sync.Once
	layout     Layout
	layoutErr  error
)

// DefaultLayout returns the embedded workbook layout.
func DefaultLayout() (Layout, error) {
	layoutOnce.Do(func() {
		layout, layoutErr = ParseLayout(crewYAML)
	})
	return layout, layoutErr
}

// ParseLayout decodes and validates a layout document.
func ParseLayout(data []byte) (Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, eris.Wrap(err, "bos: parse layout")
	}
	if len(l.Crew) == 0 {
		return Layout{}, eris.New("bos: layout has no crew rows")
	}
	seen := make(map[int]bool)
	for _, c := range l.Crew {
		if c.Row < 1 {
			return Layout{}, eris.Errorf("bos: crew %q has invalid row %d", c.Name, c.Row)
		}
		if seen[c.Row] {
			return Layout{}, eris.Errorf("bos: crew row %d listed twice", c.Row)
		}
		seen[c.Row] = true
		switch c.Policy {
		case PolicyWageFactor, PolicyTemplate:
		default:
			return Layout{}, eris.Errorf("bos: crew %q has unknown policy %q", c.Name, c.Policy)
		}
	}
	if l.PerDiemRows.First < 1 || l.PerDiemRows.Last < l.PerDiemRows.First {
		return Layout{}, eris.New("bos: invalid per-diem rows")
	}
	if l.EquipmentRows.First < 1 || l.EquipmentRows.Last < l.EquipmentRows.First {
		return Layout{}, eris.New("bos: invalid equipment rows")
	}
	return l, nil
}
