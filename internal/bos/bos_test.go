package bos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/windcost/internal/model"
)

func TestDefaultLayout(t *testing.T) {
	t.Parallel()
	l, err := DefaultLayout()
	require.NoError(t, err)

	assert.Len(t, l.Crew, 19)
	rows := make(map[int]CrewRole)
	for _, c := range l.Crew {
		rows[c.Row] = c
	}
	assert.Equal(t, "3112", rows[19].ISCO88, "QC/QA tech writes its own row")
	assert.Equal(t, "1313", rows[9].ISCO88)
	assert.Equal(t, "9333", rows[2].ISCO88)
	assert.Equal(t, "3439", rows[20].ISCO88)
	assert.Equal(t, []int{2, 21}, []int{l.PerDiemRows.First, l.PerDiemRows.Last})
	assert.Len(t, l.EquipmentRows.Rows(), 14)
}

func TestParseLayout_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "crew: []", "no crew rows"},
		{"duplicate", "crew: [{row: 2, isco88: '1', policy: wage_factor}, {row: 2, isco88: '2', policy: wage_factor}]\nper_diem_rows: {first: 2, last: 3}\nequipment_rows: {first: 2, last: 3}", "listed twice"},
		{"policy", "crew: [{row: 2, isco88: '1', policy: guess}]\nper_diem_rows: {first: 2, last: 3}\nequipment_rows: {first: 2, last: 3}", "unknown policy"},
		{"ranges", "crew: [{row: 2, isco88: '1', policy: template}]\nper_diem_rows: {first: 5, last: 3}\nequipment_rows: {first: 2, last: 3}", "per-diem"},
		{"yaml", "crew: [", "parse layout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLayout([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// buildTemplateDir writes a minimal estimator input tree.
func buildTemplateDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	list := xlsx.NewFile()
	s, err := list.AddSheet("Sheet1")
	require.NoError(t, err)
	for i, h := range []string{"Project ID", "Project data file", "Total project construction time (months)", "Turbine rating MW", "Hub height m", "Rotor diameter m"} {
		s.Cell(0, i).SetString(h)
	}
	s.Cell(1, 0).SetString("project_1")
	s.Cell(1, 1).SetString("project_test")
	s.Cell(1, 3).SetInt(2)
	s.Cell(1, 4).SetInt(80)
	s.Cell(1, 5).SetInt(100)
	require.NoError(t, list.Save(filepath.Join(dir, DefaultProjectList)))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "project_data"), 0o755))
	data := xlsx.NewFile()
	crew, err := data.AddSheet(SheetCrew)
	require.NoError(t, err)
	for row := 2; row <= 21; row++ {
		crew.Cell(row-1, 1).SetFloat(float64(30 + row))
		crew.Cell(row-1, 2).SetFloat(144)
	}
	equip, err := data.AddSheet(SheetEquipment)
	require.NoError(t, err)
	for row := 2; row <= 15; row++ {
		equip.Cell(row-1, 2).SetFloat(float64(1000 * row))
	}
	dev, err := data.AddSheet(SheetDevelopment)
	require.NoError(t, err)
	dev.Cell(2, 1).SetFloat(50000)
	require.NoError(t, data.Save(filepath.Join(dir, DefaultProjectFile)))
	return dir
}

func TestReadTemplate(t *testing.T) {
	t.Parallel()
	dir := buildTemplateDir(t)
	l, err := DefaultLayout()
	require.NoError(t, err)

	tpl, err := ReadTemplate(filepath.Join(dir, DefaultProjectFile), l)
	require.NoError(t, err)
	assert.InDelta(t, 32, tpl.CrewHourly[2], 1e-9)
	assert.InDelta(t, 50, tpl.CrewHourly[20], 1e-9)
	assert.InDelta(t, 2000, tpl.Equipment[2], 1e-9)
	assert.InDelta(t, 15000, tpl.Equipment[15], 1e-9)
	assert.InDelta(t, 50000, tpl.Development, 1e-9)
}

func TestReadTemplate_MissingSheet(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	f := xlsx.NewFile()
	_, err := f.AddSheet(SheetCrew)
	require.NoError(t, err)
	require.NoError(t, f.Save(path))

	l, _ := DefaultLayout()
	_, err = ReadTemplate(path, l)
	require.Error(t, err)
	assert.Contains(t, err.Error(), SheetEquipment)
}

func sampleInput() Input {
	return Input{
		Project: Project{RatingMW: 3, HubHeight: 110, RotorDiameter: 130, TurbineCount: 16},
		Crew: []CrewRate{
			{Row: 2, Name: "Crane operator", ISCO88: "9333", HourlyUSD: 41.5, Source: WageOccupation},
			{Row: 19, Name: "QC/QA tech", ISCO88: "3112", HourlyUSD: 22.25, Source: WageScaled},
		},
		PerDiemUSD:     133.7,
		PerDiemRows:    []int{2, 3},
		Equipment:      []EquipmentPrice{{Row: 2, PriceUSD: 1800}},
		DevelopmentUSD: 42000,
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestProcessEstimator_Success(t *testing.T) {
	t.Parallel()
	requireShell(t)
	tpl := buildTemplateDir(t)
	capture := t.TempDir()

	script := fmt.Sprintf(`cp "$2/%s" "%s/list.xlsx" && cp "$2/%s" "%s/data.xlsx" && mkdir -p "$4/2024-01-01" && printf 'Project ID with serial,Module,Type of cost,Cost per turbine\np1,ManagementCost,Labor,1000.5\np1,FoundationCost,Materials,2500\n' > "$4/2024-01-01/%s"`,
		DefaultProjectList, capture, DefaultProjectFile, capture, DefaultOutputFile)
	est := NewProcessEstimator(Config{
		Command:     "sh",
		Args:        []string{"-c", script, "sh"},
		TemplateDir: tpl,
		WorkDir:     t.TempDir(),
	})

	b, err := est.Estimate(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.InDelta(t, 3500.5, b.Total, 1e-9)
	require.Len(t, b.Lines, 2)
	assert.Equal(t, "ManagementCost", b.Lines[0].Module)
	assert.Equal(t, "Materials", b.Lines[1].Type)

	list, err := xlsx.OpenFile(filepath.Join(capture, "list.xlsx"))
	require.NoError(t, err)
	d2, _ := list.Sheets[0].Cell(1, 3).Int()
	e2, _ := list.Sheets[0].Cell(1, 4).Int()
	f2, _ := list.Sheets[0].Cell(1, 5).Int()
	assert.Equal(t, []int{3, 110, 130}, []int{d2, e2, f2})

	data, err := xlsx.OpenFile(filepath.Join(capture, "data.xlsx"))
	require.NoError(t, err)
	crew := data.Sheet[SheetCrew]
	b2, _ := crew.Cell(1, 1).Float()
	b19, _ := crew.Cell(18, 1).Float()
	b9, _ := crew.Cell(8, 1).Float()
	c3, _ := crew.Cell(2, 2).Float()
	c4, _ := crew.Cell(3, 2).Float()
	assert.InDelta(t, 41.5, b2, 1e-9)
	assert.InDelta(t, 22.25, b19, 1e-9)
	assert.InDelta(t, 39, b9, 1e-9, "untouched rows keep template values")
	assert.InDelta(t, 133.7, c3, 1e-9)
	assert.InDelta(t, 144, c4, 1e-9)
	e, _ := data.Sheet[SheetEquipment].Cell(1, 2).Float()
	assert.InDelta(t, 1800, e, 1e-9)
	dev, _ := data.Sheet[SheetDevelopment].Cell(2, 1).Float()
	assert.InDelta(t, 42000, dev, 1e-9)

	// template tree is never modified
	orig, err := xlsx.OpenFile(filepath.Join(tpl, DefaultProjectList))
	require.NoError(t, err)
	d2, _ = orig.Sheets[0].Cell(1, 3).Int()
	assert.Equal(t, 2, d2)
}

func TestProcessEstimator_Failures(t *testing.T) {
	t.Parallel()
	requireShell(t)
	tpl := buildTemplateDir(t)

	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"exit status", "echo boom >&2; exit 3", "boom"},
		{"no output", "true", "read output"},
		{"bad column", `printf 'Module,Total\nA,1\n' > "$4/` + DefaultOutputFile + `"`, "missing column"},
		{"bad number", `printf 'Module,Cost per turbine\nA,lots\n' > "$4/` + DefaultOutputFile + `"`, "not numeric"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			est := NewProcessEstimator(Config{
				Command:     "sh",
				Args:        []string{"-c", tt.script, "sh"},
				TemplateDir: tpl,
				WorkDir:     t.TempDir(),
			})
			_, err := est.Estimate(context.Background(), sampleInput())
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrExternalTool))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProcessEstimator_RemovesWorkspace(t *testing.T) {
	t.Parallel()
	requireShell(t)
	work := t.TempDir()
	est := NewProcessEstimator(Config{
		Command:     "sh",
		Args:        []string{"-c", `printf 'Cost per turbine\n7\n' > "$4/` + DefaultOutputFile + `"`, "sh"},
		TemplateDir: buildTemplateDir(t),
		WorkDir:     work,
	})

	b, err := est.Estimate(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.InDelta(t, 7, b.Total, 1e-9)

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessEstimator_NotConfigured(t *testing.T) {
	t.Parallel()
	_, err := NewProcessEstimator(Config{}).Estimate(context.Background(), sampleInput())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrExternalTool))
}

func TestProcessEstimator_InvalidInput(t *testing.T) {
	t.Parallel()
	in := sampleInput()
	in.Crew = nil
	_, err := NewProcessEstimator(Config{Command: "sh", TemplateDir: "x"}).Estimate(context.Background(), in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestStaticEstimator(t *testing.T) {
	t.Parallel()
	s := NewStaticEstimator(1.5e6)

	b, err := s.Estimate(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.InDelta(t, 1.5e6, b.Total, 1e-9)
	b.Lines[0].CostPerTurbine = 0

	b2, err := s.Estimate(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.InDelta(t, 1.5e6, b2.Lines[0].CostPerTurbine, 1e-9)
	assert.Len(t, s.Inputs(), 2)

	s.Err = errors.New("down")
	_, err = s.Estimate(context.Background(), sampleInput())
	require.Error(t, err)
}
