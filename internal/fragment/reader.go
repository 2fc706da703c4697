// Package fragment reads one source CSV file into rows of the shared schema.
//
// Fragments are parsed with the Arrow CSV reader in chunked record batches,
// so callers can either stream chunks (deferred combination) or collect the
// whole file at once (eager combination). Reading is all-or-nothing: any
// parse failure aborts with a fragment read error and no partial rows are
// delivered beyond the chunks already consumed by the caller.
package fragment

import (
	"bufio"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/avheln/raintable/internal/errors"
	"github.com/avheln/raintable/internal/table"
)

// DefaultChunkSize is the number of rows per record batch when the caller
// does not specify one.
const DefaultChunkSize = 8192

// Read streams the fragment at path in chunks of up to chunkSize rows,
// attaching model as the label of every row. fn is invoked once per chunk,
// in file order. Read returns the total number of rows delivered.
func Read(path, model string, chunkSize int, fn func(rows []table.Row) error) (int, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	if err := validateHeader(path); err != nil {
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.Wrap(errors.ErrFileNotFound, path)
		}
		return 0, errors.NewFragmentRead(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f, table.SourceArrowSchema(),
		csv.WithHeader(true),
		csv.WithChunk(chunkSize),
		csv.WithAllocator(memory.NewGoAllocator()),
	)
	defer r.Release()

	total := 0
	for r.Next() {
		rec := r.Record()

		rows, err := recordToRows(path, model, rec)
		if err != nil {
			return 0, err
		}
		if err := fn(rows); err != nil {
			return 0, err
		}
		total += len(rows)
	}

	if err := r.Err(); err != nil && !stderrors.Is(err, io.EOF) {
		return 0, errors.NewFragmentRead(path, err)
	}

	return total, nil
}

// ReadAll reads the whole fragment at path into memory.
func ReadAll(path, model string) ([]table.Row, error) {
	var rows []table.Row
	_, err := Read(path, model, DefaultChunkSize, func(chunk []table.Row) error {
		rows = append(rows, chunk...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// validateHeader checks the fragment's header row before any data is parsed,
// so a schema mismatch is reported as such rather than as a parse failure.
func validateHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrFileNotFound, path)
		}
		return errors.NewFragmentRead(path, err)
	}
	defer f.Close()

	header, err := readHeaderLine(f)
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.Wrap(errors.ErrEmptyHeader, path)
		}
		return errors.NewFragmentRead(path, err)
	}

	return table.ValidateHeader(path, header)
}

// readHeaderLine reads the first line from r and splits it on commas.
// Header names in this dataset never contain quoted commas.
func readHeaderLine(r io.Reader) ([]string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (!stderrors.Is(err, io.EOF) || line == "") {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, io.EOF
	}
	return strings.Split(line, ","), nil
}

// recordToRows converts one Arrow record batch into rows.
func recordToRows(path, model string, rec arrow.Record) ([]table.Row, error) {
	times, ok := rec.Column(0).(*array.String)
	if !ok {
		return nil, errors.NewFragmentRead(path, errors.ErrInternal)
	}

	floats := make([]*array.Float64, 5)
	for i := 0; i < 5; i++ {
		col, ok := rec.Column(i + 1).(*array.Float64)
		if !ok {
			return nil, errors.NewFragmentRead(path, errors.ErrInternal)
		}
		floats[i] = col
	}

	n := int(rec.NumRows())
	rows := make([]table.Row, n)
	for i := 0; i < n; i++ {
		ts, err := table.ParseTime(times.Value(i))
		if err != nil {
			return nil, errors.NewFragmentRead(path, err)
		}
		rows[i] = table.Row{
			Time:   ts,
			LatMin: floats[0].Value(i),
			LatMax: floats[1].Value(i),
			LonMin: floats[2].Value(i),
			LonMax: floats[3].Value(i),
			Rain:   floats[4].Value(i),
			Model:  model,
		}
	}
	return rows, nil
}
