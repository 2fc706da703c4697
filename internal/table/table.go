// Package table defines the in-memory representation of the combined
// rainfall dataset: a flat, ordered collection of rows sharing one schema.
package table

import (
	"sort"
	"time"
)

// Row is a single daily-rainfall observation covering one grid cell.
// This is the primary data unit flowing through the combiner and sinks.
type Row struct {
	// Time is the observation timestamp.
	Time time.Time

	// Spatial bounding box of the grid cell.
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64

	// Rain is the measured rainfall in mm/day.
	Rain float64

	// Model identifies the originating climate model (or "observed"),
	// derived from the source file name.
	Model string
}

// TimestampMs returns the observation time as Unix milliseconds.
func (r *Row) TimestampMs() int64 {
	return r.Time.UnixMilli()
}

// Table is the row-wise union of all fragments. Row order within a fragment
// is file order; fragment order follows directory enumeration order.
type Table struct {
	rows []Row
}

// New creates an empty table with the given capacity hint.
func New(capacity int) *Table {
	return &Table{rows: make([]Row, 0, capacity)}
}

// FromRows creates a table that takes ownership of rows.
func FromRows(rows []Row) *Table {
	return &Table{rows: rows}
}

// Append appends rows to the table.
func (t *Table) Append(rows ...Row) {
	t.rows = append(t.rows, rows...)
}

// Rows returns the underlying row slice. The slice is shared, not copied.
func (t *Table) Rows() []Row {
	return t.rows
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// ModelCount is a per-model row count.
type ModelCount struct {
	Model string
	Rows  int64
}

// CountByModel computes the grouped row count per model label,
// sorted by model name for deterministic output.
func (t *Table) CountByModel() []ModelCount {
	counts := make(map[string]int64)
	for i := range t.rows {
		counts[t.rows[i].Model]++
	}

	result := make([]ModelCount, 0, len(counts))
	for model, n := range counts {
		result = append(result, ModelCount{Model: model, Rows: n})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Model < result[j].Model
	})
	return result
}

// Models returns the distinct model labels, sorted.
func (t *Table) Models() []string {
	counts := t.CountByModel()
	models := make([]string, len(counts))
	for i, c := range counts {
		models[i] = c.Model
	}
	return models
}
