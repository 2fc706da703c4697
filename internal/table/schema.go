package table

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/avheln/raintable/internal/errors"
)

// Source CSV column names. Every fragment must carry exactly these columns,
// in this order. The measurement column name matches the dataset as published.
const (
	ColTime   = "time"
	ColLatMin = "lat_min"
	ColLatMax = "lat_max"
	ColLonMin = "lon_min"
	ColLonMax = "lon_max"
	ColRain   = "rain (mm/day)"

	// ColModel is the derived label column, present only in the combined
	// table and its persisted forms.
	ColModel = "model"
)

// SourceColumns lists the expected fragment columns in file order.
func SourceColumns() []string {
	return []string{ColTime, ColLatMin, ColLatMax, ColLonMin, ColLonMax, ColRain}
}

// CombinedColumns lists the combined table columns: the source columns with
// the measurement renamed to a plain identifier, plus the derived model label.
func CombinedColumns() []string {
	return []string{ColTime, ColLatMin, ColLatMax, ColLonMin, ColLonMax, "rain", ColModel}
}

// ValidateHeader checks a fragment's header row against the expected source
// columns. The expected columns must appear exactly, in order. On mismatch it
// returns a schema mismatch error naming the missing and unexpected columns.
func ValidateHeader(path string, header []string) error {
	if len(header) == 0 {
		return errors.Wrap(errors.ErrEmptyHeader, path)
	}

	expected := SourceColumns()
	if equalColumns(header, expected) {
		return nil
	}

	have := make(map[string]bool, len(header))
	for _, c := range header {
		have[c] = true
	}
	want := make(map[string]bool, len(expected))
	for _, c := range expected {
		want[c] = true
	}

	var missing, unexpected []string
	for _, c := range expected {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	for _, c := range header {
		if !want[c] {
			unexpected = append(unexpected, c)
		}
	}

	return errors.NewSchemaMismatch(path, missing, unexpected)
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SourceArrowSchema returns the Arrow schema used to parse fragment CSVs.
// The time column is read as a string and parsed separately, since the
// dataset mixes date-only and date-time values.
func SourceArrowSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: ColTime, Type: arrow.BinaryTypes.String},
		{Name: ColLatMin, Type: arrow.PrimitiveTypes.Float64},
		{Name: ColLatMax, Type: arrow.PrimitiveTypes.Float64},
		{Name: ColLonMin, Type: arrow.PrimitiveTypes.Float64},
		{Name: ColLonMax, Type: arrow.PrimitiveTypes.Float64},
		{Name: ColRain, Type: arrow.PrimitiveTypes.Float64},
	}, nil)
}

// CombinedArrowSchema returns the Arrow schema of the combined table, used
// by the Feather sink.
func CombinedArrowSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: ColTime, Type: arrow.FixedWidthTypes.Timestamp_ms},
		{Name: ColLatMin, Type: arrow.PrimitiveTypes.Float64},
		{Name: ColLatMax, Type: arrow.PrimitiveTypes.Float64},
		{Name: ColLonMin, Type: arrow.PrimitiveTypes.Float64},
		{Name: ColLonMax, Type: arrow.PrimitiveTypes.Float64},
		{Name: "rain", Type: arrow.PrimitiveTypes.Float64},
		{Name: ColModel, Type: arrow.BinaryTypes.String},
	}, nil)
}

// timeLayouts are the accepted timestamp formats, most specific first.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses a source timestamp value.
func ParseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var ts time.Time
		ts, err = time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}
