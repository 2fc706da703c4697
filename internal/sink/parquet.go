// Package sink persists the combined table and reads it back. Three formats
// are supported: Parquet, Feather (Arrow IPC file) and CSV. Every sink
// round-trips rows losslessly at millisecond timestamp precision.
package sink

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/avheln/raintable/internal/errors"
	"github.com/avheln/raintable/internal/table"
)

// ParquetOptions configures the Parquet writer.
type ParquetOptions struct {
	// Compression algorithm
	Compression CompressionType

	// CompressionLevel for algorithms that support it (zstd: 1-22)
	CompressionLevel int
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

// DefaultParquetOptions returns default Parquet options.
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression:      CompressionZstd,
		CompressionLevel: 3,
	}
}

// ParseCompressionType parses a compression type string.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case "snappy":
		return CompressionSnappy
	case "zstd":
		return CompressionZstd
	case "lz4":
		return CompressionLZ4
	case "gzip":
		return CompressionGzip
	case "none", "":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

// getCompression returns the parquet-go compression codec. The level only
// applies to zstd; the other codecs ignore it.
func getCompression(ct CompressionType, level int) compress.Codec {
	switch ct {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		return &zstd.Codec{Level: zstdLevel(level)}
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// zstdLevel maps a numeric zstd level (1-22) onto the encoder's speed tiers.
func zstdLevel(level int) zstd.Level {
	switch {
	case level <= 0:
		return zstd.DefaultLevel
	case level <= 2:
		return zstd.SpeedFastest
	case level <= 5:
		return zstd.SpeedDefault
	case level <= 9:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// RainRow represents a combined-table row in Parquet format.
type RainRow struct {
	TimeMs int64   `parquet:"time_ms"`
	LatMin float64 `parquet:"lat_min"`
	LatMax float64 `parquet:"lat_max"`
	LonMin float64 `parquet:"lon_min"`
	LonMax float64 `parquet:"lon_max"`
	Rain   float64 `parquet:"rain"`
	Model  string  `parquet:"model,zstd"`
}

// ToRainRow converts a table row to its Parquet representation.
func ToRainRow(r *table.Row) RainRow {
	return RainRow{
		TimeMs: r.TimestampMs(),
		LatMin: r.LatMin,
		LatMax: r.LatMax,
		LonMin: r.LonMin,
		LonMax: r.LonMax,
		Rain:   r.Rain,
		Model:  r.Model,
	}
}

// FromRainRow converts a Parquet row back to a table row.
func FromRainRow(p *RainRow) table.Row {
	return table.Row{
		Time:   time.UnixMilli(p.TimeMs).UTC(),
		LatMin: p.LatMin,
		LatMax: p.LatMax,
		LonMin: p.LonMin,
		LonMax: p.LonMax,
		Rain:   p.Rain,
		Model:  p.Model,
	}
}

// ParquetWriter writes combined-table rows to a Parquet file.
type ParquetWriter struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	writer   *parquet.GenericWriter[RainRow]
	rowCount int64
	closed   bool
}

// NewParquetWriter creates a new Parquet writer.
func NewParquetWriter(path string, opts ParquetOptions) (*ParquetWriter, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	writerOpts := []parquet.WriterOption{
		parquet.Compression(getCompression(opts.Compression, opts.CompressionLevel)),
	}

	writer := parquet.NewGenericWriter[RainRow](f, writerOpts...)

	return &ParquetWriter{
		path:   path,
		file:   f,
		writer: writer,
	}, nil
}

// Write writes rows to the Parquet file.
func (w *ParquetWriter) Write(rows []table.Row) error {
	if len(rows) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.ErrWriterClosed
	}

	prows := make([]RainRow, len(rows))
	for i := range rows {
		prows[i] = ToRainRow(&rows[i])
	}

	n, err := w.writer.Write(prows)
	if err != nil {
		return fmt.Errorf("write rows: %w", err)
	}

	w.rowCount += int64(n)
	return nil
}

// Close closes the writer.
func (w *ParquetWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close writer: %w", err)
	}

	return w.file.Close()
}

// RowCount returns the number of rows written.
func (w *ParquetWriter) RowCount() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rowCount
}

// Path returns the file path.
func (w *ParquetWriter) Path() string {
	return w.path
}

// WriteParquet persists a whole table to path.
func WriteParquet(path string, t *table.Table, opts ParquetOptions) error {
	w, err := NewParquetWriter(path, opts)
	if err != nil {
		return err
	}
	if err := w.Write(t.Rows()); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// ParquetReader reads combined-table rows from a Parquet file.
type ParquetReader struct {
	file   *os.File
	reader *parquet.GenericReader[RainRow]
	path   string
}

// NewParquetReader creates a new Parquet reader.
func NewParquetReader(path string) (*ParquetReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	reader := parquet.NewGenericReader[RainRow](f)

	return &ParquetReader{
		file:   f,
		reader: reader,
		path:   path,
	}, nil
}

// ReadAll reads all rows from the file.
func (r *ParquetReader) ReadAll() ([]table.Row, error) {
	numRows := r.reader.NumRows()
	prows := make([]RainRow, numRows)

	// Read returns io.EOF when the buffer covers the remaining rows.
	n, err := r.reader.Read(prows)
	if err != nil && !stderrors.Is(err, io.EOF) {
		return nil, err
	}

	rows := make([]table.Row, n)
	for i := 0; i < n; i++ {
		rows[i] = FromRainRow(&prows[i])
	}

	return rows, nil
}

// NumRows returns the total number of rows in the file.
func (r *ParquetReader) NumRows() int64 {
	return r.reader.NumRows()
}

// Close closes the reader.
func (r *ParquetReader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// Path returns the file path.
func (r *ParquetReader) Path() string {
	return r.path
}

// ReadParquet loads a whole persisted table from path.
func ReadParquet(path string) (*table.Table, error) {
	r, err := NewParquetReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return table.FromRows(rows), nil
}
