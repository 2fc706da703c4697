package combine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/avheln/raintable/internal/errors"
	"github.com/avheln/raintable/internal/testutil"
)

// populate writes three matching fragments (10, 20 and 5 rows) plus one
// non-matching file into dir.
func populate(t *testing.T, dir string) {
	t.Helper()
	testutil.WriteFragment(t, dir, "ACCESS-CM2_daily_rainfall_NSW.csv", 10)
	testutil.WriteFragment(t, dir, "MPI-ESM1-2-HR_daily_rainfall_NSW.csv", 20)
	testutil.WriteFragment(t, dir, "observed_daily_rainfall_SYD.csv", 5)
	testutil.WriteFile(t, dir, "notes.txt", "not tabular data")
}

func TestCombineEager(t *testing.T) {
	dir := t.TempDir()
	populate(t, dir)

	tbl, err := Combine(context.Background(), Options{BaseDir: dir, Strategy: StrategyEager})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	if tbl.NumRows() != 35 {
		t.Fatalf("expected 35 rows, got %d", tbl.NumRows())
	}

	counts := tbl.CountByModel()
	if len(counts) != 3 {
		t.Fatalf("expected 3 distinct models, got %d", len(counts))
	}
	wantCounts := map[string]int64{
		"ACCESS-CM2":    10,
		"MPI-ESM1-2-HR": 20,
		"observed":      5,
	}
	for _, c := range counts {
		if wantCounts[c.Model] != c.Rows {
			t.Errorf("model %s: expected %d rows, got %d", c.Model, wantCounts[c.Model], c.Rows)
		}
	}

	// Fragment order follows enumeration (lexical) order under the eager
	// strategy, and row order within a fragment is file order.
	rows := tbl.Rows()
	if rows[0].Model != "ACCESS-CM2" || rows[10].Model != "MPI-ESM1-2-HR" || rows[30].Model != "observed" {
		t.Error("fragments not concatenated in enumeration order")
	}
}

func TestCombineDeferredMatchesEager(t *testing.T) {
	dir := t.TempDir()
	populate(t, dir)

	eager, err := Combine(context.Background(), Options{BaseDir: dir, Strategy: StrategyEager})
	if err != nil {
		t.Fatalf("eager Combine: %v", err)
	}

	deferred, err := Combine(context.Background(), Options{
		BaseDir:   dir,
		Strategy:  StrategyDeferred,
		Workers:   3,
		ChunkSize: 7,
	})
	if err != nil {
		t.Fatalf("deferred Combine: %v", err)
	}

	if eager.NumRows() != deferred.NumRows() {
		t.Fatalf("row counts differ: eager=%d deferred=%d", eager.NumRows(), deferred.NumRows())
	}

	// Same multiset of rows regardless of strategy.
	em := testutil.RowMultiset(eager.Rows())
	dm := testutil.RowMultiset(deferred.Rows())
	for key, n := range em {
		if dm[key] != n {
			t.Fatalf("row multiset differs at %q: eager=%d deferred=%d", key, n, dm[key])
		}
	}
}

func TestPlanMaterializeIdempotent(t *testing.T) {
	dir := t.TempDir()
	populate(t, dir)

	handle, err := Plan(Options{BaseDir: dir, Strategy: StrategyDeferred})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if len(handle.Fragments()) != 3 {
		t.Fatalf("expected 3 planned fragments, got %d", len(handle.Fragments()))
	}

	first, err := handle.Materialize(context.Background())
	if err != nil {
		t.Fatalf("first Materialize: %v", err)
	}

	second, err := handle.Materialize(context.Background())
	if err != nil {
		t.Fatalf("second Materialize: %v", err)
	}

	if first != second {
		t.Error("expected repeated materialization to return the cached table")
	}
	if first.NumRows() != 35 {
		t.Errorf("expected 35 rows, got %d", first.NumRows())
	}
}

func TestCombineEmptyDir(t *testing.T) {
	dir := t.TempDir()

	for _, strategy := range []Strategy{StrategyEager, StrategyDeferred} {
		tbl, err := Combine(context.Background(), Options{BaseDir: dir, Strategy: strategy})
		if err != nil {
			t.Fatalf("%s: Combine on empty dir: %v", strategy, err)
		}
		if tbl.NumRows() != 0 {
			t.Errorf("%s: expected empty table, got %d rows", strategy, tbl.NumRows())
		}
	}
}

func TestCombineMissingDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	for _, strategy := range []Strategy{StrategyEager, StrategyDeferred} {
		_, err := Combine(context.Background(), Options{BaseDir: missing, Strategy: strategy})
		if !errors.IsNotFound(err) {
			t.Errorf("%s: expected not-found error, got %v", strategy, err)
		}
	}
}

func TestCombineSchemaMismatchAborts(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFragment(t, dir, "ACCESS-CM2_daily_rainfall_NSW.csv", 10)
	testutil.WriteFile(t, dir, "broken_daily_rainfall_NSW.csv",
		"time,lat_min,lat_max,lon_min,lon_max\n1889-01-01 12:00:00,-36.25,-35,140.625,142.5\n")

	for _, strategy := range []Strategy{StrategyEager, StrategyDeferred} {
		tbl, err := Combine(context.Background(), Options{BaseDir: dir, Strategy: strategy})
		if !errors.IsSchemaMismatch(err) {
			t.Errorf("%s: expected schema mismatch error, got %v", strategy, err)
		}
		if tbl != nil {
			t.Errorf("%s: expected no partial result", strategy)
		}
	}
}

func TestCombineFragmentReadAborts(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFragment(t, dir, "ACCESS-CM2_daily_rainfall_NSW.csv", 10)
	testutil.WriteFile(t, dir, "bad_daily_rainfall_NSW.csv",
		testutil.SourceHeader+"\n1889-01-01 12:00:00,-36.25,-35,140.625,142.5,not-a-number\n")

	for _, strategy := range []Strategy{StrategyEager, StrategyDeferred} {
		tbl, err := Combine(context.Background(), Options{BaseDir: dir, Strategy: strategy})
		if !errors.IsFragmentRead(err) {
			t.Errorf("%s: expected fragment read error, got %v", strategy, err)
		}
		if tbl != nil {
			t.Errorf("%s: expected no partial result", strategy)
		}
	}
}

func TestEnumerateDeterministic(t *testing.T) {
	dir := t.TempDir()
	populate(t, dir)

	first, err := Enumerate(dir, Filter{})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	second, err := Enumerate(dir, Filter{})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 fragments both runs, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("fragment %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestDeriveModel(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"ACCESS-CM2_daily_rainfall_NSW.csv", "ACCESS-CM2"},
		{"MPI-ESM1-2-HR_daily_rainfall_NSW.csv", "MPI-ESM1-2-HR"},
		{"observed_daily_rainfall_SYD.csv", "observed"},
		{"custom.csv", "custom"},
		// Nothing before the marker: fall back to the base name rather
		// than an empty label.
		{"_daily_rainfall_X.csv", "_daily_rainfall_X"},
	}

	for _, tt := range tests {
		if got := DeriveModel(tt.name); got != tt.want {
			t.Errorf("DeriveModel(%q): expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy("eager"); err != nil || s != StrategyEager {
		t.Errorf("ParseStrategy(eager): %v, %v", s, err)
	}
	if s, err := ParseStrategy("deferred"); err != nil || s != StrategyDeferred {
		t.Errorf("ParseStrategy(deferred): %v, %v", s, err)
	}
	if _, err := ParseStrategy("lazy"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
