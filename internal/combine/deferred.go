package combine

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/avheln/raintable/internal/fragment"
	"github.com/avheln/raintable/internal/logging"
	"github.com/avheln/raintable/internal/table"
)

// Handle is an unexecuted combination plan. It records which fragments will
// be read and how, without touching file contents. Materialize triggers the
// actual reads; the result is cached, so materializing twice returns the
// same table without re-reading.
type Handle struct {
	fragments []Fragment
	workers   int
	chunkSize int

	once   sync.Once
	result *table.Table
	err    error
}

// Plan enumerates the source files and builds a deferred combination plan.
// Only the directory listing happens here; no fragment is opened.
func Plan(opts Options) (*Handle, error) {
	fragments, err := Enumerate(opts.BaseDir, opts.Filter)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Handle{
		fragments: fragments,
		workers:   workers,
		chunkSize: opts.ChunkSize,
	}, nil
}

// Fragments returns the planned fragments in enumeration order.
func (h *Handle) Fragments() []Fragment {
	return h.fragments
}

// Materialize executes the plan: fragments are read in parallel with bounded
// workers, chunk by chunk, then assembled into enumeration order. The first
// fragment failure cancels the remaining reads and fails the whole
// combination with no partial result. The call is idempotent; repeated
// materialization returns the cached table.
func (h *Handle) Materialize(ctx context.Context) (*table.Table, error) {
	h.once.Do(func() {
		h.result, h.err = h.run(ctx)
	})
	return h.result, h.err
}

func (h *Handle) run(ctx context.Context) (*table.Table, error) {
	log := logging.Component("combine")

	// Per-fragment slots keep row membership and per-fragment order intact
	// while physical reads complete in any order.
	slots := make([][]table.Row, len(h.fragments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)

	for i, frag := range h.fragments {
		g.Go(func() error {
			var rows []table.Row
			_, err := fragment.Read(frag.Path, frag.Model, h.chunkSize, func(chunk []table.Row) error {
				if err := gctx.Err(); err != nil {
					return err
				}
				rows = append(rows, chunk...)
				return nil
			})
			if err != nil {
				return err
			}
			slots[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, rows := range slots {
		total += len(rows)
	}

	result := table.New(total)
	for _, rows := range slots {
		result.Append(rows...)
	}

	log.Debug("materialized plan",
		"fragments", len(h.fragments),
		"rows", total,
		"workers", h.workers,
	)
	return result, nil
}
