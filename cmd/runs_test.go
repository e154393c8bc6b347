//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/windcost/internal/model"
	"github.com/sells-group/windcost/internal/refdata"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Spec:      testSpec("USA"),
			Status:    model.RunStatusComplete,
			Result:    &model.Result{LCOE: 38.56726368088656},
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Second),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Spec:      testSpec("DEU"),
			Status:    model.RunStatusFailed,
			Error:     "discount: data unavailable",
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-1 * time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "COUNTRY")
	assert.Contains(t, output, "LCOE")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "USA")
	assert.Contains(t, output, "38.57")
	assert.Contains(t, output, "3000kW/130m/110m x16")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "DEU")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "2s")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}

func TestFormatCoverage(t *testing.T) {
	lines := []refdata.CoverageLine{
		{Table: "tax", Key: "USA", Available: true, Detail: "21.00%"},
		{Table: "land", Key: "US", Available: false, Detail: "data unavailable"},
		{Table: "landfill", Key: "US", Available: false, Detail: "data unavailable"},
	}

	var buf bytes.Buffer
	missing := formatCoverage(&buf, lines)

	assert.Equal(t, 2, missing)
	out := buf.String()
	assert.Contains(t, out, "TABLE")
	assert.Contains(t, out, "21.00%")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "ok")
}

func TestFormatCoverage_FromEmptyTables(t *testing.T) {
	var buf bytes.Buffer
	lines := refdata.Empty().Coverage(model.MustCountry("DEU"))
	missing := formatCoverage(&buf, lines)
	assert.Equal(t, len(lines), missing)
}
