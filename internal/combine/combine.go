// Package combine implements the tabular combiner: it enumerates the
// same-schema rainfall CSV files under a base directory and merges them into
// one table, either eagerly (sequential full reads) or via a deferred plan
// that reads fragments in parallel, chunk by chunk.
package combine

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/avheln/raintable/internal/errors"
	"github.com/avheln/raintable/internal/logging"
	"github.com/avheln/raintable/internal/table"
)

// Strategy selects the execution engine for a combination.
type Strategy int

const (
	// StrategyEager reads every fragment fully into memory, in enumeration
	// order, and concatenates immediately. Peak memory is proportional to
	// the sum of all fragment sizes.
	StrategyEager Strategy = iota

	// StrategyDeferred builds a lazy read-and-concatenate plan first and
	// executes it with bounded parallel chunked reads when materialized.
	StrategyDeferred
)

// String returns a human-readable representation of the Strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyEager:
		return "eager"
	case StrategyDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "eager", "":
		return StrategyEager, nil
	case "deferred":
		return StrategyDeferred, nil
	default:
		return StrategyEager, errors.Wrap(errors.ErrInvalidStrategy, s)
	}
}

// DefaultWorkers is the deferred engine's default read parallelism.
const DefaultWorkers = 4

// modelMarker separates the model name from the rest of the dataset
// file name convention (<MODEL>_daily_rainfall_<REGION>.csv).
const modelMarker = "_daily_rainfall"

// Options configures a combination run.
type Options struct {
	// BaseDir is the directory holding the source files. Must exist.
	BaseDir string

	// Strategy selects the execution engine.
	Strategy Strategy

	// Workers bounds the deferred engine's parallelism. Zero means
	// DefaultWorkers. Ignored by the eager engine.
	Workers int

	// ChunkSize is the number of rows per read batch. Zero means the
	// fragment reader's default.
	ChunkSize int

	// Filter selects the source files. Zero value means DefaultFilter.
	Filter Filter
}

// Fragment identifies one selected source file and its derived model label.
type Fragment struct {
	Path  string
	Model string
}

// Combine runs a full combination: enumerate, read, concatenate.
// Under StrategyDeferred this is Plan followed by an immediate Materialize.
func Combine(ctx context.Context, opts Options) (*table.Table, error) {
	switch opts.Strategy {
	case StrategyEager:
		fragments, err := Enumerate(opts.BaseDir, opts.Filter)
		if err != nil {
			return nil, err
		}
		return runEager(ctx, fragments, opts.ChunkSize)
	case StrategyDeferred:
		handle, err := Plan(opts)
		if err != nil {
			return nil, err
		}
		return handle.Materialize(ctx)
	default:
		return nil, errors.Wrap(errors.ErrInvalidStrategy, opts.Strategy.String())
	}
}

// Enumerate lists the source files under baseDir that pass the filter,
// in directory enumeration (lexical) order, with their model labels.
// Non-matching files are skipped deterministically, not reported.
func Enumerate(baseDir string, filter Filter) ([]Fragment, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewDirNotFound(baseDir)
		}
		return nil, errors.Wrapf(err, "read directory %q", baseDir)
	}

	log := logging.Component("combine")

	var fragments []Fragment
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !filter.Match(name) {
			log.Debug("skipping non-matching file", "file", name)
			continue
		}
		fragments = append(fragments, Fragment{
			Path:  filepath.Join(baseDir, name),
			Model: DeriveModel(name),
		})
	}

	log.Debug("enumerated fragments", "dir", baseDir, "count", len(fragments))
	return fragments, nil
}

// DeriveModel extracts the model label from a source file name:
// "ACCESS-CM2_daily_rainfall_NSW.csv" yields "ACCESS-CM2", and
// "observed_daily_rainfall_SYD.csv" yields "observed". A name without the
// convention marker, or with nothing before it, falls back to its base name
// without extension so no row ever carries an empty label.
func DeriveModel(name string) string {
	base := filepath.Base(name)
	if idx := strings.Index(base, modelMarker); idx > 0 {
		return base[:idx]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
