// raintable combines a directory of daily-rainfall CSV files into one table,
// persists it as CSV, Parquet and Feather, compares load latency across the
// formats, and prints a per-model row count.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/avheln/raintable/internal/combine"
	"github.com/avheln/raintable/internal/config"
	"github.com/avheln/raintable/internal/loadreport"
	"github.com/avheln/raintable/internal/logging"
	"github.com/avheln/raintable/internal/query"
	"github.com/avheln/raintable/internal/sink"
	tbl "github.com/avheln/raintable/internal/table"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// CLI flags
	cfgPath := flag.String("config", "config.yaml", "config file path")
	dataDir := flag.String("data", "", "source directory (overrides config)")
	outDir := flag.String("out", "", "output directory (overrides config)")
	strategy := flag.String("strategy", "", "combine strategy: eager, deferred (overrides config)")
	workers := flag.Int("workers", 0, "deferred read parallelism (overrides config)")
	formats := flag.String("formats", "", "comma-separated output formats (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	jsonLogs := flag.Bool("json-logs", false, "log as JSON")
	flag.Parse()

	logging.Init(parseLevel(*logLevel), *jsonLogs)
	log := logging.Component("main")
	log.Info("raintable starting", "version", Version)

	// Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("no config file found, using defaults")
			cfg = config.DefaultConfig()
		} else {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
	}

	// CLI overrides
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *strategy != "" {
		cfg.Combine.Strategy = *strategy
	}
	if *workers > 0 {
		cfg.Combine.Workers = *workers
	}
	if *formats != "" {
		cfg.Output.Formats = strings.Split(*formats, ",")
	}

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := run(ctx, cfg); err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logging.Component("main")
	opts := cfg.CombineOptions()

	// =========================================================================
	// Combine
	// =========================================================================

	var combined *tbl.Table
	if opts.Strategy == combine.StrategyDeferred && cfg.Combine.DeferExecution {
		handle, err := combine.Plan(opts)
		if err != nil {
			return err
		}
		log.Info("combination planned", "fragments", len(handle.Fragments()))

		combined, err = handle.Materialize(ctx)
		if err != nil {
			return err
		}
	} else {
		var err error
		combined, err = combine.Combine(ctx, opts)
		if err != nil {
			return err
		}
	}

	log.Info("combination finished",
		"strategy", opts.Strategy.String(),
		"rows", combined.NumRows(),
		"models", len(combined.Models()),
	)

	// =========================================================================
	// Persist
	// =========================================================================

	if err := cfg.EnsureOutputDir(); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}

	var artifacts []loadreport.Artifact
	for _, format := range cfg.Output.Formats {
		path := cfg.OutputPath(format)

		var err error
		switch format {
		case "csv":
			err = sink.WriteCSV(path, combined)
		case "parquet":
			popts := sink.ParquetOptions{
				Compression:      sink.ParseCompressionType(cfg.Output.Compression.Algorithm),
				CompressionLevel: cfg.Output.Compression.Level,
			}
			err = sink.WriteParquet(path, combined, popts)
		case "feather":
			err = sink.WriteFeather(path, combined)
		}
		if err != nil {
			return fmt.Errorf("write %s artifact: %w", format, err)
		}

		log.Info("artifact written", "format", format, "path", path)
		artifacts = append(artifacts, loadreport.Artifact{Format: format, Path: path})
	}

	// =========================================================================
	// Load comparison
	// =========================================================================

	reports, err := loadreport.Measure(artifacts)
	if err != nil {
		return err
	}
	printLoadReport(reports)

	// =========================================================================
	// Grouped count
	// =========================================================================

	counts := combined.CountByModel()

	// Prefer counting via DuckDB over the Parquet artifact when one was
	// written, to exercise the same path a downstream analysis would use.
	if parquetPath := artifactPath(artifacts, "parquet"); parquetPath != "" {
		svc, err := query.New(query.Options{MemoryLimit: cfg.Query.MemoryLimit})
		if err != nil {
			return err
		}
		defer svc.Close()

		qctx := ctx
		if cfg.Query.Timeout > 0 {
			var cancel context.CancelFunc
			qctx, cancel = context.WithTimeout(ctx, cfg.Query.Timeout)
			defer cancel()
		}

		counts, err = svc.ModelCounts(qctx, parquetPath)
		if err != nil {
			return err
		}
	}
	printModelCounts(counts)

	return nil
}

func artifactPath(artifacts []loadreport.Artifact, format string) string {
	for _, a := range artifacts {
		if a.Format == format {
			return a.Path
		}
	}
	return ""
}

func printLoadReport(reports []loadreport.FormatReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Format", "Rows", "Size (bytes)", "Load time"})
	for _, r := range reports {
		t.AppendRow(table.Row{r.Format, r.Rows, r.SizeBytes, r.LoadTime.String()})
	}
	t.Render()
}

func printModelCounts(counts []tbl.ModelCount) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Rows"})
	var total int64
	for _, c := range counts {
		t.AppendRow(table.Row{c.Model, c.Rows})
		total += c.Rows
	}
	t.AppendFooter(table.Row{"total", total})
	t.Render()
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
