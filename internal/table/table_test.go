package table

import (
	"testing"
	"time"
)

func makeRow(model string, rain float64) Row {
	return Row{
		Time:   time.Date(1889, 1, 1, 12, 0, 0, 0, time.UTC),
		LatMin: -36.25,
		LatMax: -35,
		LonMin: 140.625,
		LonMax: 142.5,
		Rain:   rain,
		Model:  model,
	}
}

func TestCountByModel(t *testing.T) {
	tbl := New(0)
	for i := 0; i < 10; i++ {
		tbl.Append(makeRow("ACCESS-CM2", float64(i)))
	}
	for i := 0; i < 20; i++ {
		tbl.Append(makeRow("MPI-ESM1-2-HR", float64(i)))
	}
	for i := 0; i < 5; i++ {
		tbl.Append(makeRow("observed", float64(i)))
	}

	if tbl.NumRows() != 35 {
		t.Fatalf("expected 35 rows, got %d", tbl.NumRows())
	}

	counts := tbl.CountByModel()
	if len(counts) != 3 {
		t.Fatalf("expected 3 models, got %d", len(counts))
	}

	expected := []ModelCount{
		{Model: "ACCESS-CM2", Rows: 10},
		{Model: "MPI-ESM1-2-HR", Rows: 20},
		{Model: "observed", Rows: 5},
	}
	for i, want := range expected {
		if counts[i] != want {
			t.Errorf("counts[%d]: expected %+v, got %+v", i, want, counts[i])
		}
	}
}

func TestCountByModelEmpty(t *testing.T) {
	tbl := New(0)
	if counts := tbl.CountByModel(); len(counts) != 0 {
		t.Errorf("expected no counts for empty table, got %v", counts)
	}
	if models := tbl.Models(); len(models) != 0 {
		t.Errorf("expected no models for empty table, got %v", models)
	}
}

func TestValidateHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		wantErr bool
	}{
		{
			name:   "exact match",
			header: []string{"time", "lat_min", "lat_max", "lon_min", "lon_max", "rain (mm/day)"},
		},
		{
			name:    "missing rain column",
			header:  []string{"time", "lat_min", "lat_max", "lon_min", "lon_max"},
			wantErr: true,
		},
		{
			name:    "unexpected extra column",
			header:  []string{"time", "lat_min", "lat_max", "lon_min", "lon_max", "rain (mm/day)", "extra"},
			wantErr: true,
		},
		{
			name:    "renamed column",
			header:  []string{"timestamp", "lat_min", "lat_max", "lon_min", "lon_max", "rain (mm/day)"},
			wantErr: true,
		},
		{
			name:    "empty header",
			header:  nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeader("test.csv", tt.header)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"1889-01-01 12:00:00", time.Date(1889, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"1889-01-01T12:00:00", time.Date(1889, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"1889-01-01", time.Date(1889, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseTime(tt.input)
		if err != nil {
			t.Errorf("ParseTime(%q): %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTime(%q): expected %v, got %v", tt.input, tt.want, got)
		}
	}

	if _, err := ParseTime("not-a-time"); err == nil {
		t.Error("expected error for invalid timestamp")
	}
}

func TestArrowSchemas(t *testing.T) {
	src := SourceArrowSchema()
	if src.NumFields() != len(SourceColumns()) {
		t.Errorf("source schema has %d fields, expected %d", src.NumFields(), len(SourceColumns()))
	}
	for i, name := range SourceColumns() {
		if src.Field(i).Name != name {
			t.Errorf("source field %d: expected %q, got %q", i, name, src.Field(i).Name)
		}
	}

	combined := CombinedArrowSchema()
	if combined.NumFields() != len(CombinedColumns()) {
		t.Errorf("combined schema has %d fields, expected %d", combined.NumFields(), len(CombinedColumns()))
	}
	if combined.Field(combined.NumFields()-1).Name != ColModel {
		t.Errorf("expected last combined column to be %q", ColModel)
	}
}
