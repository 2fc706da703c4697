// Package query computes grouped counts over the persisted combined table.
// It uses DuckDB to scan the Parquet and CSV artifacts directly, without
// loading them through the in-memory table first.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/avheln/raintable/internal/table"
)

// Options configures the query service.
type Options struct {
	// MemoryLimit is the DuckDB memory limit, e.g. "2GB". Empty means
	// DuckDB's default.
	MemoryLimit string
}

// Service provides query capabilities over persisted artifacts.
type Service struct {
	mu sync.RWMutex

	db *sql.DB

	// Statistics
	stats Stats
}

// Stats holds query statistics.
type Stats struct {
	QueriesExecuted int64
	RowsReturned    int64
	Errors          int64
}

// New creates a new query service backed by an in-memory DuckDB database.
func New(opts Options) (*Service, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if opts.MemoryLimit != "" {
		_, err = db.Exec(fmt.Sprintf("SET memory_limit='%s'", opts.MemoryLimit))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("set memory limit: %w", err)
		}
	}

	return &Service{db: db}, nil
}

// Close closes the query service.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ModelCounts returns the per-model row count from a Parquet artifact
// (or a glob of them), sorted by model name.
func (s *Service) ModelCounts(ctx context.Context, parquetPath string) ([]table.ModelCount, error) {
	query := `
		SELECT model, COUNT(*) AS rows
		FROM read_parquet($1)
		GROUP BY model
		ORDER BY model
	`
	return s.countQuery(ctx, query, parquetPath)
}

// ModelCountsCSV returns the per-model row count from a CSV artifact,
// sorted by model name.
func (s *Service) ModelCountsCSV(ctx context.Context, csvPath string) ([]table.ModelCount, error) {
	query := `
		SELECT model, COUNT(*) AS rows
		FROM read_csv_auto($1)
		GROUP BY model
		ORDER BY model
	`
	return s.countQuery(ctx, query, csvPath)
}

// TotalRows returns the total row count of a Parquet artifact.
func (s *Service) TotalRows(ctx context.Context, parquetPath string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM read_parquet($1)", parquetPath).Scan(&total)
	if err != nil {
		s.stats.Errors++
		return 0, fmt.Errorf("count rows: %w", err)
	}

	s.stats.QueriesExecuted++
	s.stats.RowsReturned++
	return total, nil
}

// countQuery runs a model/count query and scans the result.
func (s *Service) countQuery(ctx context.Context, query, path string) ([]table.ModelCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, query, path)
	if err != nil {
		s.stats.Errors++
		return nil, fmt.Errorf("group count: %w", err)
	}
	defer rows.Close()

	var counts []table.ModelCount
	for rows.Next() {
		var c table.ModelCount
		if err := rows.Scan(&c.Model, &c.Rows); err != nil {
			s.stats.Errors++
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		s.stats.Errors++
		return nil, err
	}

	s.stats.QueriesExecuted++
	s.stats.RowsReturned += int64(len(counts))
	return counts, nil
}

// ExecuteSQL executes a raw SQL query. This is useful for ad-hoc queries
// and debugging.
func (s *Service) ExecuteSQL(ctx context.Context, query string) ([]map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.stats.Errors++
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	s.stats.QueriesExecuted++
	s.stats.RowsReturned += int64(len(results))

	return results, rows.Err()
}

// Stats returns query statistics.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
