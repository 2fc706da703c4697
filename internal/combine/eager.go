package combine

import (
	"context"

	"github.com/avheln/raintable/internal/fragment"
	"github.com/avheln/raintable/internal/table"
)

// runEager reads every fragment fully, one after another, and concatenates
// in enumeration order. Any fragment failure aborts the whole combination.
func runEager(ctx context.Context, fragments []Fragment, chunkSize int) (*table.Table, error) {
	result := table.New(0)

	for _, frag := range fragments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, err := fragment.Read(frag.Path, frag.Model, chunkSize, func(rows []table.Row) error {
			result.Append(rows...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}
