// Package testutil provides test helpers for the raintable packages:
// generators for source CSV fragments and combined-table rows.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/avheln/raintable/internal/table"
)

// SourceHeader is the header line of a well-formed source fragment.
const SourceHeader = "time,lat_min,lat_max,lon_min,lon_max,rain (mm/day)"

// WriteFile writes content to dir/name and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// WriteFragment writes a well-formed source fragment with numRows data rows
// and returns its path. Row values are deterministic in the row index.
func WriteFragment(t *testing.T, dir, name string, numRows int) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(SourceHeader)
	b.WriteByte('\n')

	base := time.Date(1889, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < numRows; i++ {
		ts := base.AddDate(0, 0, i)
		fmt.Fprintf(&b, "%s,-36.25,-35,140.625,142.5,%g\n",
			ts.Format("2006-01-02 15:04:05"), float64(i)/4)
	}

	return WriteFile(t, dir, name, b.String())
}

// MakeRows builds n deterministic combined-table rows for a model.
func MakeRows(model string, n int) []table.Row {
	base := time.Date(1889, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := make([]table.Row, n)
	for i := 0; i < n; i++ {
		rows[i] = table.Row{
			Time:   base.AddDate(0, 0, i),
			LatMin: -36.25,
			LatMax: -35,
			LonMin: 140.625,
			LonMax: 142.5,
			Rain:   float64(i) / 4,
			Model:  model,
		}
	}
	return rows
}

// RowKey reduces a row to a comparable string, for multiset comparisons.
func RowKey(r *table.Row) string {
	return fmt.Sprintf("%d|%g|%g|%g|%g|%g|%s",
		r.Time.UnixMilli(), r.LatMin, r.LatMax, r.LonMin, r.LonMax, r.Rain, r.Model)
}

// RowMultiset counts rows by their comparable key.
func RowMultiset(rows []table.Row) map[string]int {
	m := make(map[string]int, len(rows))
	for i := range rows {
		m[RowKey(&rows[i])]++
	}
	return m
}
