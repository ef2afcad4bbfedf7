package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minsoo-dev/libcrowd/archive"
	"github.com/minsoo-dev/libcrowd/config"
	"github.com/minsoo-dev/libcrowd/fetch"
	"github.com/minsoo-dev/libcrowd/gate"
	"github.com/minsoo-dev/libcrowd/models"
	"github.com/minsoo-dev/libcrowd/pipeline"
	"github.com/minsoo-dev/libcrowd/report"
	"github.com/minsoo-dev/libcrowd/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultCfg := config.DefaultConfig()
	targetDefault := defaultCfg.TargetURL
	if value, ok := config.EnvString("COLLECTOR_TARGET_URL"); ok {
		targetDefault = value
	}
	outputDefault := defaultCfg.OutputRoot
	if value, ok := config.EnvString("COLLECTOR_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("COLLECTOR_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	intervalDefault := defaultCfg.Interval
	if value, ok, err := config.EnvDuration("COLLECTOR_INTERVAL"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid COLLECTOR_INTERVAL: %v\n", err)
		os.Exit(1)
	} else if ok {
		intervalDefault = value
	}

	targetURL := flag.String("target-url", targetDefault, "Congestion page URL to fetch through the proxy")
	backend := flag.String("backend", defaultCfg.Backend, "Persistence backend: workbook, sqlite, or dual")
	outputRoot := flag.String("output", outputDefault, "Root directory for workbook containers")
	sqlitePath := flag.String("sqlite", defaultCfg.SQLitePath, "SQLite database path")
	pgDSN := flag.String("pg-dsn", "", "Optional Postgres DSN for an additional sink")
	containerName := flag.String("container", defaultCfg.ContainerName, "Destination container name")
	tableName := flag.String("table", defaultCfg.TableName, "Destination table name")
	archiveDir := flag.String("archive-dir", defaultCfg.ArchiveDir, "If set, archive each fetched page into this directory")
	processDir := flag.String("process-dir", "", "Process archived pages from this directory instead of fetching")
	interval := flag.Duration("interval", intervalDefault, "Re-run interval; 0 runs once")
	timeout := flag.Duration("timeout", defaultCfg.Timeout, "Fetch timeout")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	compact := flag.Bool("compact", false, "Deduplicate and sort the workbook table after the run")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	cfg.TargetURL = *targetURL
	cfg.Backend = *backend
	cfg.OutputRoot = *outputRoot
	cfg.SQLitePath = *sqlitePath
	cfg.PostgresDSN = *pgDSN
	cfg.ContainerName = *containerName
	cfg.TableName = *tableName
	cfg.ArchiveDir = *archiveDir
	cfg.Interval = *interval
	cfg.Timeout = *timeout
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	if cfg.ArchiveDir == "" && cfg.FolderID != "" {
		cfg.ArchiveDir = cfg.FolderID
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	destination, queryable, err := createStore(ctx, cfg)
	if err != nil {
		slog.Error("creating store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := destination.Close(); err != nil {
			slog.Error("close store", slog.Any("error", err))
		}
	}()

	// Folder-processing mode replays archived pages and exits.
	if *processDir != "" {
		folderReport, err := archive.ProcessFolder(ctx, *processDir, destination)
		if err != nil {
			slog.Error("processing folder", slog.Any("error", err))
			os.Exit(1)
		}
		fmt.Printf("Processed %d pages: %d done, %d failed, %d rows\n",
			folderReport.Processed, folderReport.Done, folderReport.Failed, folderReport.Rows)
		return
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	client, err := fetch.NewClient(cfg)
	if err != nil {
		slog.Error("initialising fetch client", slog.Any("error", err))
		os.Exit(1)
	}

	collector, err := pipeline.NewCollector(cfg, gate.New(), client, destination)
	if err != nil {
		slog.Error("initialising collector", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting collector",
		slog.String("target", cfg.TargetURL),
		slog.String("backend", cfg.Backend),
		slog.Duration("interval", cfg.Interval),
	)

	metricsServer := startMetricsServer(cfg.MetricsAddr, collector, queryable)

	lastReport := runLoop(ctx, collector, cfg.Interval)

	if *compact {
		if wb, ok := destination.(*store.Workbook); ok {
			if err := wb.Compact(); err != nil {
				slog.Error("compacting table", slog.Any("error", err))
			}
		}
	}

	if err := destination.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(lastReport)
}

// runLoop executes one run, then keeps running on the interval until the
// context is cancelled. Interval zero means run once.
func runLoop(ctx context.Context, collector *pipeline.Collector, interval time.Duration) *models.RunReport {
	last := collector.Run(ctx)
	if interval <= 0 {
		return last
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received")
			return last
		case <-ticker.C:
			last = collector.Run(ctx)
		}
	}
}

// createStore builds the persistence backend(s) selected by cfg and returns
// a queryable view for the report endpoint when one exists.
func createStore(ctx context.Context, cfg *config.Config) (store.Store, store.Queryable, error) {
	var stores []store.Store
	var queryable store.Queryable

	switch cfg.Backend {
	case "workbook", "dual":
		wb, err := store.OpenWorkbook(cfg.OutputRoot, cfg.ContainerName, cfg.TableName)
		if err != nil {
			return nil, nil, err
		}
		stores = append(stores, wb)
		queryable = wb
	}
	switch cfg.Backend {
	case "sqlite", "dual":
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		stores = append(stores, db)
		queryable = db
	}
	if len(stores) == 0 {
		return nil, nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}

	if cfg.PostgresDSN != "" {
		pg, err := store.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		stores = append(stores, pg)
	}

	if len(stores) == 1 {
		return stores[0], queryable, nil
	}
	return store.NewMultiStore(stores...), queryable, nil
}

func startMetricsServer(addr string, collector *pipeline.Collector, queryable store.Queryable) *http.Server {
	if addr == "" || collector.Metrics == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(collector.Metrics.Registry, promhttp.HandlerOpts{}))
	if queryable != nil {
		mux.Handle("/report", report.Handler(queryable))
	}

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func printSummary(r *models.RunReport) {
	if r == nil {
		return
	}
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Collection run complete")
	fmt.Printf("  Outcome:       %s\n", r.Outcome)
	if r.Err != nil {
		fmt.Printf("  Detail:        %v\n", r.Err)
	}
	if r.StatusCode != 0 {
		fmt.Printf("  HTTP status:   %d\n", r.StatusCode)
	}
	fmt.Printf("  Readings:      %d\n", r.ReadingCount)
	fmt.Printf("  Rows appended: %d\n", r.RowsAppended)
	fmt.Printf("  Duplicates:    %d\n", r.Duplicates)
	fmt.Printf("  Duration:      %v\n", r.EndTime.Sub(r.StartTime))
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
