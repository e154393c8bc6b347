package bos

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcost/internal/fetcher"
	"github.com/sells-group/windcost/internal/model"
)

// Config locates the external cost model and its input tree.
type Config struct {
	Command     string   `yaml:"command" mapstructure:"command"`
	Args        []string `yaml:"args" mapstructure:"args"`
	TemplateDir string   `yaml:"template_dir" mapstructure:"template_dir"`
	WorkDir     string   `yaml:"work_dir" mapstructure:"work_dir"`
	ProjectFile string   `yaml:"project_file" mapstructure:"project_file"`
	ProjectList string   `yaml:"project_list" mapstructure:"project_list"`
	OutputFile  string   `yaml:"output_file" mapstructure:"output_file"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Defaults for Config fields left empty.
const (
	DefaultProjectFile = "project_data/project_test.xlsx"
	DefaultProjectList = "project_list.xlsx"
	DefaultOutputFile  = "landbosse-costs.csv"
	CostColumn         = "Cost per turbine"
)

func (c Config) withDefaults() Config {
	if c.ProjectFile == "" {
		c.ProjectFile = DefaultProjectFile
	}
	if c.ProjectList == "" {
		c.ProjectList = DefaultProjectList
	}
	if c.OutputFile == "" {
		c.OutputFile = DefaultOutputFile
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = 600
	}
	return c
}

// TemplatePath returns the project data workbook inside the template tree.
func (c Config) TemplatePath() string {
	return filepath.Join(c.TemplateDir, c.withDefaults().ProjectFile)
}

// ProcessEstimator runs the cost model as a separate process inside a
// private copy of the template input tree.
type ProcessEstimator struct {
	cfg Config
}

// NewProcessEstimator creates a ProcessEstimator.
func NewProcessEstimator(cfg Config) *ProcessEstimator {
	return &ProcessEstimator{cfg: cfg.withDefaults()}
}

// Estimate implements Estimator.
func (p *ProcessEstimator) Estimate(ctx context.Context, in Input) (*Breakdown, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if p.cfg.Command == "" || p.cfg.TemplateDir == "" {
		return nil, eris.Wrap(model.ErrExternalTool, "bos: estimator command and template_dir must be configured")
	}

	ws, err := os.MkdirTemp(p.cfg.WorkDir, "bos-*")
	if err != nil {
		return nil, toolError(err, "create workspace")
	}
	defer func() {
		if err := os.RemoveAll(ws); err != nil {
			zap.L().Warn("bos: remove workspace", zap.String("dir", ws), zap.Error(err))
		}
	}()

	inDir := filepath.Join(ws, "input")
	outDir := filepath.Join(ws, "output")
	if err := os.CopyFS(inDir, os.DirFS(p.cfg.TemplateDir)); err != nil {
		return nil, toolError(err, "copy template %s", p.cfg.TemplateDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, toolError(err, "create output dir")
	}
	if err := writeProjectList(filepath.Join(inDir, p.cfg.ProjectList), in.Project); err != nil {
		return nil, toolError(err, "write project list")
	}
	if err := writeProjectData(filepath.Join(inDir, p.cfg.ProjectFile), in); err != nil {
		return nil, toolError(err, "write project data")
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutSecs)*time.Second)
	defer cancel()

	args := append(append([]string(nil), p.cfg.Args...), "-i", inDir, "-o", outDir)
	cmd := exec.CommandContext(runCtx, p.cfg.Command, args...)
	cmd.Dir = ws

	start := time.Now()
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, toolError(err, "run %s: %s", p.cfg.Command, tail(string(output), 512))
	}
	zap.L().Debug("bos: estimator finished",
		zap.String("command", p.cfg.Command),
		zap.Duration("elapsed", time.Since(start)),
	)

	dir, err := newestDir(outDir)
	if err != nil {
		return nil, toolError(err, "locate output")
	}
	b, err := readCosts(ctx, filepath.Join(dir, p.cfg.OutputFile))
	if err != nil {
		return nil, toolError(err, "read output")
	}
	return b, nil
}

// newestDir returns the most recently modified subdirectory of dir, or dir
// itself when it has none.
func newestDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrapf(err, "read %s", dir)
	}
	newest := ""
	var newestMod time.Time
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest, newestMod = filepath.Join(dir, e.Name()), info.ModTime()
		}
	}
	if newest == "" {
		return dir, nil
	}
	return newest, nil
}

// readCosts sums the per-turbine cost column of the output CSV.
func readCosts(ctx context.Context, path string) (*Breakdown, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{LazyQuotes: true, TrimSpace: true})

	b := &Breakdown{}
	var header map[string]int
	for row := range rowCh {
		if header == nil {
			header = make(map[string]int, len(row))
			for i, h := range row {
				header[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
			}
			if _, ok := header[CostColumn]; !ok {
				// drain so the reader goroutine can exit
				for range rowCh {
				}
				return nil, eris.Errorf("%s: missing column %q", path, CostColumn)
			}
			continue
		}
		line, err := parseLine(header, row)
		if err != nil {
			for range rowCh {
			}
			return nil, eris.Wrapf(err, "%s", path)
		}
		b.Lines = append(b.Lines, line)
		b.Total += line.CostPerTurbine
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if header == nil {
		return nil, eris.Errorf("%s: empty output", path)
	}
	return b, nil
}

func parseLine(header map[string]int, row []string) (Line, error) {
	get := func(col string) string {
		if i, ok := header[col]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}
	var v float64
	if raw := get(CostColumn); raw != "" {
		var err error
		if v, err = strconv.ParseFloat(raw, 64); err != nil {
			return Line{}, eris.Errorf("cost %q is not numeric", raw)
		}
	}
	return Line{Module: get("Module"), Type: get("Type of cost"), CostPerTurbine: v}, nil
}

func toolError(err error, format string, args ...any) error {
	return eris.Wrapf(model.ErrExternalTool, "bos: %s: %v", fmt.Sprintf(format, args...), err)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
