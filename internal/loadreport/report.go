// Package loadreport re-reads each persisted artifact of the combined table
// and records how long a full load takes, so the storage formats can be
// compared on size and load latency.
package loadreport

import (
	"fmt"
	"os"
	"time"

	"github.com/avheln/raintable/internal/logging"
	"github.com/avheln/raintable/internal/sink"
	"github.com/avheln/raintable/internal/table"
)

// Artifact identifies one persisted form of the combined table.
type Artifact struct {
	Format string // csv, parquet, feather
	Path   string
}

// FormatReport is the measurement for one artifact.
type FormatReport struct {
	Format    string
	Path      string
	SizeBytes int64
	Rows      int
	LoadTime  time.Duration
}

// Measure loads every artifact fully and reports rows, file size and load
// duration, in the given order.
func Measure(artifacts []Artifact) ([]FormatReport, error) {
	log := logging.Component("loadreport")

	reports := make([]FormatReport, 0, len(artifacts))
	for _, a := range artifacts {
		info, err := os.Stat(a.Path)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", a.Path, err)
		}

		start := time.Now()
		t, err := load(a)
		elapsed := time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("load %s artifact: %w", a.Format, err)
		}

		report := FormatReport{
			Format:    a.Format,
			Path:      a.Path,
			SizeBytes: info.Size(),
			Rows:      t.NumRows(),
			LoadTime:  elapsed,
		}
		reports = append(reports, report)

		log.Debug("measured artifact",
			"format", a.Format,
			"rows", report.Rows,
			"size_bytes", report.SizeBytes,
			"load_ms", elapsed.Milliseconds(),
		)
	}

	return reports, nil
}

// load reads one artifact fully into memory.
func load(a Artifact) (*table.Table, error) {
	switch a.Format {
	case "csv":
		return sink.ReadCSV(a.Path)
	case "parquet":
		return sink.ReadParquet(a.Path)
	case "feather":
		return sink.ReadFeather(a.Path)
	default:
		return nil, fmt.Errorf("unknown format %q", a.Format)
	}
}
