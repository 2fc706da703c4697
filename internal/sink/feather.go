package sink

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/avheln/raintable/internal/table"
)

// featherBatchSize is the number of rows per Arrow record batch when
// writing a Feather file.
const featherBatchSize = 65536

// WriteFeather persists a whole table to path as an Arrow IPC file
// (the Feather V2 format), in batched record chunks.
func WriteFeather(path string, t *table.Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	mem := memory.NewGoAllocator()
	schema := table.CombinedArrowSchema()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		f.Close()
		return fmt.Errorf("create ipc writer: %w", err)
	}

	rows := t.Rows()
	for start := 0; start < len(rows); start += featherBatchSize {
		end := start + featherBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		rec := buildRecord(mem, schema, rows[start:end])
		err := w.Write(rec)
		rec.Release()
		if err != nil {
			w.Close()
			f.Close()
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close ipc writer: %w", err)
	}
	return f.Close()
}

// buildRecord builds one Arrow record batch from rows.
func buildRecord(mem memory.Allocator, schema *arrow.Schema, rows []table.Row) arrow.Record {
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	times := b.Field(0).(*array.TimestampBuilder)
	latMin := b.Field(1).(*array.Float64Builder)
	latMax := b.Field(2).(*array.Float64Builder)
	lonMin := b.Field(3).(*array.Float64Builder)
	lonMax := b.Field(4).(*array.Float64Builder)
	rain := b.Field(5).(*array.Float64Builder)
	model := b.Field(6).(*array.StringBuilder)

	for i := range rows {
		r := &rows[i]
		times.Append(arrow.Timestamp(r.TimestampMs()))
		latMin.Append(r.LatMin)
		latMax.Append(r.LatMax)
		lonMin.Append(r.LonMin)
		lonMax.Append(r.LonMax)
		rain.Append(r.Rain)
		model.Append(r.Model)
	}

	return b.NewRecord()
}

// ReadFeather loads a whole persisted table from an Arrow IPC file.
func ReadFeather(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("create ipc reader: %w", err)
	}
	defer r.Close()

	result := table.New(0)
	for {
		rec, err := r.Read()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read record: %w", err)
		}

		rows, err := recordToRows(rec)
		if err != nil {
			return nil, err
		}
		result.Append(rows...)
	}

	return result, nil
}

// recordToRows converts one combined-schema record batch back to rows.
func recordToRows(rec arrow.Record) ([]table.Row, error) {
	times, ok := rec.Column(0).(*array.Timestamp)
	if !ok {
		return nil, fmt.Errorf("unexpected column type for %q: %s", table.ColTime, rec.Column(0).DataType())
	}

	floats := make([]*array.Float64, 5)
	for i := 0; i < 5; i++ {
		col, ok := rec.Column(i + 1).(*array.Float64)
		if !ok {
			return nil, fmt.Errorf("unexpected column type at %d: %s", i+1, rec.Column(i+1).DataType())
		}
		floats[i] = col
	}

	models, ok := rec.Column(6).(*array.String)
	if !ok {
		return nil, fmt.Errorf("unexpected column type for %q: %s", table.ColModel, rec.Column(6).DataType())
	}

	n := int(rec.NumRows())
	rows := make([]table.Row, n)
	for i := 0; i < n; i++ {
		rows[i] = table.Row{
			Time:   times.Value(i).ToTime(arrow.Millisecond).UTC(),
			LatMin: floats[0].Value(i),
			LatMax: floats[1].Value(i),
			LonMin: floats[2].Value(i),
			LonMax: floats[3].Value(i),
			Rain:   floats[4].Value(i),
			Model:  models.Value(i),
		}
	}
	return rows, nil
}
