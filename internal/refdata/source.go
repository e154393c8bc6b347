package refdata

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/windcost/internal/fetcher"
)

// errMissing marks a local table file that does not exist.
var errMissing = errors.New("table source missing")

// Opener reads table sources from local paths, http(s) URLs or ftp URLs.
type Opener struct {
	HTTP fetcher.Fetcher
	FTP  fetcher.Fetcher
}

func (o Opener) remote(src string) (fetcher.Fetcher, bool) {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return o.HTTP, true
	case strings.HasPrefix(src, "ftp://"):
		return o.FTP, true
	default:
		return nil, false
	}
}

// ReadRows returns every row of a CSV or XLSX source, header included.
func (o Opener) ReadRows(ctx context.Context, src string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(src), ".xlsx") {
		return o.readXLSX(ctx, src)
	}
	return o.readCSV(ctx, src)
}

func (o Opener) readCSV(ctx context.Context, src string) ([][]string, error) {
	var body io.ReadCloser
	if f, ok := o.remote(src); ok {
		if f == nil {
			return nil, eris.Errorf("refdata: no fetcher configured for %s", src)
		}
		rc, err := f.Download(ctx, src)
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: download %s", src)
		}
		body = rc
	} else {
		file, err := os.Open(src)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(errMissing, "refdata: %s", src)
		}
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: open %s", src)
		}
		body = file
	}
	defer body.Close() //nolint:errcheck

	rows, err := fetcher.CollectCSV(ctx, body, fetcher.CSVOptions{LazyQuotes: true, TrimSpace: true})
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: parse %s", src)
	}
	return rows, nil
}

func (o Opener) readXLSX(ctx context.Context, src string) ([][]string, error) {
	path := src
	if f, ok := o.remote(src); ok {
		if f == nil {
			return nil, eris.Errorf("refdata: no fetcher configured for %s", src)
		}
		tmp, err := os.CreateTemp("", "refdata-*.xlsx")
		if err != nil {
			return nil, eris.Wrap(err, "refdata: create temp file")
		}
		_ = tmp.Close()
		defer os.Remove(tmp.Name()) //nolint:errcheck
		if _, err := f.DownloadToFile(ctx, src, tmp.Name()); err != nil {
			return nil, eris.Wrapf(err, "refdata: download %s", src)
		}
		path = tmp.Name()
	} else if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(errMissing, "refdata: %s", src)
	}

	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: parse %s", src)
	}
	return rows, nil
}

// frame is a header-indexed view over raw rows.
type frame struct {
	cols map[string]int
	rows [][]string
}

func newFrame(rows [][]string, required ...string) (*frame, error) {
	f := &frame{cols: make(map[string]int)}
	if len(rows) == 0 {
		return f, nil
	}
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		f.cols[h] = i
	}
	for _, c := range required {
		if _, ok := f.cols[c]; !ok {
			return nil, eris.Errorf("refdata: missing column %q", c)
		}
	}
	f.rows = rows[1:]
	return f, nil
}

func (f *frame) str(row []string, col string) string {
	i, ok := f.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// num parses a numeric cell. Empty and non-numeric cells report false.
func (f *frame) num(row []string, col string) (float64, bool) {
	s := f.str(row, col)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (f *frame) year(row []string, col string) (int, bool) {
	v, ok := f.num(row, col)
	if !ok {
		return 0, false
	}
	return int(v), true
}
