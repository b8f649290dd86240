package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"dartbridge/internal/analyzer"
	"dartbridge/internal/core/config"
	"dartbridge/internal/core/ports"
	"dartbridge/internal/data/history"
	"dartbridge/internal/output"
	"dartbridge/internal/scanner"
	"dartbridge/internal/shared/observability"
	"dartbridge/internal/watcher"
)

var (
	configPath = flag.String("config", "./dartbridge.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run a single analysis and exit")
	outDir     = flag.String("out", "", "Directory for report.json and components.dot")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("dartbridge v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./dartbridge.toml" && errors.Is(err, fs.ErrNotExist) {
			cfg = config.DefaultConfig()
		} else {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	if flag.NArg() > 0 {
		cfg.Paths.ProjectRoot = flag.Arg(0)
	}
	cwd, _ := os.Getwd()
	root, err := cfg.ResolveRoot(cwd)
	if err != nil {
		logger.Error("invalid project root", "error", err)
		os.Exit(1)
	}
	cfg.Paths.ProjectRoot = root

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracing(ctx, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	var hist ports.HistoryStore = &ports.NoopHistoryStore{}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath(root))
		if err != nil {
			logger.Warn("history disabled", "error", err)
		} else {
			hist = store
			defer store.Close()
		}
	}

	eng, err := analyzer.New(cfg, root, analyzer.Options{
		History:  hist,
		Progress: &logSink{logger: logger},
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to initialize analyzer", "error", err)
		os.Exit(1)
	}

	if cfg.Telemetry.MetricsAddr != "" {
		obs := observability.NewServer(cfg.Telemetry.MetricsAddr, func() string {
			return eng.Phase().String()
		})
		obs.Start()
		defer obs.Stop(context.Background())
	}

	res, err := eng.Run(ctx)
	if err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}
	printSummary(res)
	writeArtifacts(logger, res)

	if *once {
		if !res.Validation.Valid {
			os.Exit(1)
		}
		return
	}

	// Watch mode: every debounced change batch triggers a fresh
	// incremental run.
	sc, err := scanner.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize scanner", "error", err)
		os.Exit(1)
	}
	runs := make(chan []string, 1)
	w, err := watcher.New(sc, cfg.Watch.Debounce, logger, func(paths []string) {
		select {
		case runs <- paths:
		default:
		}
	})
	if err != nil {
		logger.Error("failed to initialize watcher", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	if err := w.Watch(filepath.Join(root, cfg.Paths.SourceRoot)); err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	logger.Info("watching for changes", "root", root)

	for {
		select {
		case <-ctx.Done():
			return
		case paths := <-runs:
			logger.Info("changes detected", "files", len(paths))
			res, err := eng.Run(ctx)
			if err != nil {
				logger.Error("analysis failed", "error", err)
				continue
			}
			printSummary(res)
			writeArtifacts(logger, res)
		}
	}
}

func writeArtifacts(logger *slog.Logger, res *analyzer.Result) {
	if *outDir == "" {
		return
	}
	failed := make([]string, 0, len(res.Failed))
	for _, f := range res.Failed {
		failed = append(failed, string(f))
	}
	summary := output.Summary{
		RunID:     res.RunID,
		Files:     res.Files,
		Dirty:     res.Dirty,
		CacheHits: res.CacheHits,
		Failed:    failed,
		Duration:  res.Duration,
	}
	if err := output.WriteAll(*outDir, res.App, res.Validation, summary); err != nil {
		logger.Error("failed to write report artifacts", "dir", *outDir, "error", err)
	}
}

func printSummary(res *analyzer.Result) {
	fmt.Printf("Analyzed %d files (%d dirty, %d cached) in %s\n",
		res.Files, res.Dirty, res.CacheHits, res.Duration.Round(time.Millisecond))
	if len(res.Failed) > 0 {
		fmt.Printf("Failed files (%d):\n", len(res.Failed))
		for _, f := range res.Failed {
			fmt.Printf("  - %s\n", f)
		}
	}
	for _, issue := range res.Validation.Errors {
		fmt.Printf("error: %s\n", issue)
	}
	for _, issue := range res.Validation.Warnings {
		fmt.Printf("warning: %s\n", issue)
	}
	if res.Validation.Valid {
		fmt.Println("Structure OK")
	} else {
		fmt.Printf("Structure INVALID: %d errors\n", len(res.Validation.Errors))
	}
}

// logSink forwards progress events to the structured log at debug level.
type logSink struct {
	logger *slog.Logger
}

func (s *logSink) Publish(e ports.ProgressEvent) {
	s.logger.Debug("progress",
		"run_id", e.RunID,
		"phase", e.Phase,
		"current", e.Current,
		"total", e.Total,
		"message", e.Message)
}
