package bos

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Workbook sheet names.
const (
	SheetCrew        = "crew_price"
	SheetEquipment   = "equip_price"
	SheetDevelopment = "development"
)

// Template holds the baseline US values of the project workbook.
type Template struct {
	CrewHourly  map[int]float64 // crew_price column B by row
	Equipment   map[int]float64 // equip_price column C by row
	Development float64         // development B3
}

// ReadTemplate reads the baseline values named by l from the workbook at
// path.
func ReadTemplate(path string, l Layout) (*Template, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "bos: open template %s", path)
	}

	crew, err := sheet(f, SheetCrew)
	if err != nil {
		return nil, err
	}
	equip, err := sheet(f, SheetEquipment)
	if err != nil {
		return nil, err
	}
	dev, err := sheet(f, SheetDevelopment)
	if err != nil {
		return nil, err
	}

	t := &Template{
		CrewHourly: make(map[int]float64, len(l.Crew)),
		Equipment:  make(map[int]float64),
	}
	for _, c := range l.Crew {
		v, err := readFloat(crew, fmt.Sprintf("B%d", c.Row))
		if err != nil {
			return nil, err
		}
		t.CrewHourly[c.Row] = v
	}
	for _, row := range l.EquipmentRows.Rows() {
		v, err := readFloat(equip, fmt.Sprintf("C%d", row))
		if err != nil {
			return nil, err
		}
		t.Equipment[row] = v
	}
	if t.Development, err = readFloat(dev, "B3"); err != nil {
		return nil, err
	}
	return t, nil
}

// writeProjectList sets rating, hub height and rotor diameter on the first
// project row of the project list workbook.
func writeProjectList(path string, p Project) error {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return eris.Wrapf(err, "bos: open project list %s", path)
	}
	if len(f.Sheets) == 0 {
		return eris.Errorf("bos: project list %s has no sheets", path)
	}
	s := f.Sheets[0]
	for ref, v := range map[string]int{"D2": p.RatingMW, "E2": p.HubHeight, "F2": p.RotorDiameter} {
		c, err := cell(s, ref)
		if err != nil {
			return err
		}
		c.SetInt(v)
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "bos: save project list %s", path)
	}
	return nil
}

// writeProjectData writes the regional wage, per-diem, equipment and
// development values into the project data workbook.
func writeProjectData(path string, in Input) error {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return eris.Wrapf(err, "bos: open project data %s", path)
	}

	crew, err := sheet(f, SheetCrew)
	if err != nil {
		return err
	}
	for _, c := range in.Crew {
		if err := writeFloat(crew, fmt.Sprintf("B%d", c.Row), c.HourlyUSD); err != nil {
			return err
		}
	}
	for _, row := range in.PerDiemRows {
		if err := writeFloat(crew, fmt.Sprintf("C%d", row), in.PerDiemUSD); err != nil {
			return err
		}
	}

	equip, err := sheet(f, SheetEquipment)
	if err != nil {
		return err
	}
	for _, e := range in.Equipment {
		if err := writeFloat(equip, fmt.Sprintf("C%d", e.Row), e.PriceUSD); err != nil {
			return err
		}
	}

	dev, err := sheet(f, SheetDevelopment)
	if err != nil {
		return err
	}
	if err := writeFloat(dev, "B3", in.DevelopmentUSD); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "bos: save project data %s", path)
	}
	return nil
}

func sheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	s, ok := f.Sheet[name]
	if !ok {
		return nil, eris.Errorf("bos: sheet %q not found", name)
	}
	return s, nil
}

func cell(s *xlsx.Sheet, ref string) (*xlsx.Cell, error) {
	col, row, err := xlsx.GetCoordsFromCellIDString(ref)
	if err != nil {
		return nil, eris.Wrapf(err, "bos: cell %s", ref)
	}
	return s.Cell(row, col), nil
}

func readFloat(s *xlsx.Sheet, ref string) (float64, error) {
	c, err := cell(s, ref)
	if err != nil {
		return 0, err
	}
	v, err := c.Float()
	if err != nil {
		return 0, eris.Wrapf(err, "bos: %s!%s is not numeric", s.Name, ref)
	}
	return v, nil
}

func writeFloat(s *xlsx.Sheet, ref string, v float64) error {
	c, err := cell(s, ref)
	if err != nil {
		return err
	}
	c.SetFloat(v)
	return nil
}
