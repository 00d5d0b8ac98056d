package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/keldra/resirel/internal/adapters/repository"
	"github.com/keldra/resirel/internal/app"
	"github.com/keldra/resirel/internal/config"
	"github.com/keldra/resirel/pkg/logger"
	"github.com/keldra/resirel/pkg/metrics"
)

// Metrics server timeout constants.
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	log := logger.Get()

	flags := newFlagSet()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		os.Stderr.WriteString("failed to parse flags: " + err.Error() + "\n")
		return 2
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, flags)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	dungeons, short, err := config.LoadDungeons(cfg.DungeonsPath)
	if err != nil {
		log.Error(ctx, "failed to load dungeon pool", logger.Error(err))
		return 1
	}

	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(ctx, cfg.MetricsAddr, log)
		defer stopMetricsServer(srv, log)
	}

	log.Info(ctx, "opening season database",
		logger.String("db", cfg.DBFile()),
		logger.String("season", cfg.Season),
		logger.String("region", cfg.Region),
	)
	repo, err := repository.NewMemoryRepository(ctx, cfg.DBFile())
	if err != nil {
		log.Error(ctx, "failed to open season database", logger.Error(err))
		return 1
	}
	defer func() { _ = repo.Close() }()

	analyzer := app.New(repo, dungeons, short,
		app.WithLogger(log),
		app.WithTargetLevel(cfg.TargetLevel),
		app.WithMaxLevel(cfg.MaxLevel),
		app.WithMinLevel(cfg.MinLevel),
		app.WithWorkers(cfg.Workers),
		app.WithCacheSize(cfg.CacheSize),
		app.WithOutputPrefix(cfg.OutputPrefix),
	)

	reports, err := analyzer.Run(ctx)
	if err != nil {
		log.Error(ctx, "analysis failed", logger.Error(err))
		return 1
	}

	for _, report := range reports {
		log.Info(ctx, "level summary",
			logger.Int("level", report.Level),
			logger.Int("resilient", report.Resilient),
			logger.Int("resilientEdges", report.ResilientEdges),
			logger.Int("nonResilientEdges", report.NonResilientEdges),
			logger.Any("files", report.Files),
		)
	}
	return 0
}

// newFlagSet declares the CLI flags. Defaults mirror config.New() so flags
// left at their default never override file or env values.
func newFlagSet() *pflag.FlagSet {
	defaults := config.New()

	fs := pflag.NewFlagSet("resirel", pflag.ContinueOnError)
	fs.String("config", "", "path to a JSON or YAML config file")
	fs.String("region", defaults.Region, "region code, e.g. eu or us")
	fs.String("season", defaults.Season, "season identifier, e.g. tww-season3")
	fs.Int("resi-key-level", defaults.TargetLevel, "resilience key level the sweep starts at")
	fs.Int("max-level", defaults.MaxLevel, "level the sweep ends at, inclusive")
	fs.Int("min-level", defaults.MinLevel, "lower bound of the resilience level window")
	fs.String("db-path", defaults.DBPath, "season database path (default <season>-<region>.db)")
	fs.String("dungeons-path", defaults.DungeonsPath, "path to the dungeon short-code map")
	fs.String("output-dir", defaults.OutputDir, "directory for result files")
	fs.Int("workers", defaults.Workers, "goroutines used to build edges")
	fs.Int("cache-size", defaults.CacheSize, "resilience memo cache bound (0 disables)")
	fs.String("log-level", defaults.LogLevel, "debug, info, warn, or error")
	fs.String("metrics-addr", defaults.MetricsAddr, "address for the /metrics listener (empty disables)")
	return fs
}

// startMetricsServer exposes /metrics while the sweep runs.
func startMetricsServer(ctx context.Context, addr string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting metrics server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()
	return srv
}

func stopMetricsServer(srv *http.Server, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error(ctx, "metrics server shutdown failed", logger.Error(err))
	}
}
