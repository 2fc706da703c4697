package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/avheln/raintable/internal/table"
)

// csvTimeLayout is the timestamp format used in persisted CSV output.
const csvTimeLayout = "2006-01-02 15:04:05"

// WriteCSV persists a whole table to path as delimited text with a header.
func WriteCSV(path string, t *table.Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(table.CombinedColumns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, 7)
	for _, r := range t.Rows() {
		record[0] = r.Time.UTC().Format(csvTimeLayout)
		record[1] = formatFloat(r.LatMin)
		record[2] = formatFloat(r.LatMax)
		record[3] = formatFloat(r.LonMin)
		record[4] = formatFloat(r.LonMax)
		record[5] = formatFloat(r.Rain)
		record[6] = r.Model
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadCSV loads a whole persisted table from delimited text written by
// WriteCSV.
func ReadCSV(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 7

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header[0] != table.ColTime {
		return nil, fmt.Errorf("unexpected header: %v", header)
	}

	result := table.New(0)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		row, err := parseCSVRow(record)
		if err != nil {
			return nil, err
		}
		result.Append(row)
	}

	return result, nil
}

func parseCSVRow(record []string) (table.Row, error) {
	ts, err := time.Parse(csvTimeLayout, record[0])
	if err != nil {
		return table.Row{}, fmt.Errorf("parse time %q: %w", record[0], err)
	}

	values := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return table.Row{}, fmt.Errorf("parse value %q: %w", record[i+1], err)
		}
		values[i] = v
	}

	return table.Row{
		Time:   ts,
		LatMin: values[0],
		LatMax: values[1],
		LonMin: values[2],
		LonMax: values[3],
		Rain:   values[4],
		Model:  record[6],
	}, nil
}
