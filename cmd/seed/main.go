package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/keldra/resirel/internal/config"
	"github.com/keldra/resirel/internal/seed"
	"github.com/keldra/resirel/pkg/logger"
)

// Default generator settings.
const (
	defaultCharacters = 200
	defaultRuns       = 2000
	defaultMinLevel   = 2
	defaultMaxLevel   = 25
	defaultStart      = "2025-09-01T00:00:00.000Z"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := pflag.NewFlagSet("resirel-seed", pflag.ContinueOnError)
	var (
		out          = fs.String("out", "tww-season3-eu.db", "path of the season database to write")
		characters   = fs.Int("characters", defaultCharacters, "number of characters in the season")
		runs         = fs.Int("runs", defaultRuns, "number of runs to generate")
		minLevel     = fs.Int("min-level", defaultMinLevel, "lowest generated key level")
		maxLevel     = fs.Int("max-level", defaultMaxLevel, "highest generated key level")
		start        = fs.String("start", defaultStart, "timestamp of the first run")
		seedValue    = fs.Int64("seed", 1, "random seed; identical seeds produce identical seasons")
		dungeonsPath = fs.String("dungeons-path", "", "optional dungeon short-code map to draw dungeon names from")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Stderr.WriteString("failed to parse flags: " + err.Error() + "\n")
		return 2
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startAt, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		log.Error(ctx, "invalid start timestamp", logger.String("start", *start), logger.Error(err))
		return 2
	}

	cfg := seed.Config{
		Characters: *characters,
		Runs:       *runs,
		MinLevel:   *minLevel,
		MaxLevel:   *maxLevel,
		Start:      startAt,
		Seed:       *seedValue,
	}
	if *dungeonsPath != "" {
		names, _, err := config.LoadDungeons(*dungeonsPath)
		if err != nil {
			log.Error(ctx, "failed to load dungeon pool", logger.Error(err))
			return 1
		}
		cfg.Dungeons = names
	}

	generated := seed.Generate(cfg)
	if err := seed.Write(ctx, *out, generated); err != nil {
		log.Error(ctx, "failed to write season database", logger.Error(err))
		return 1
	}

	log.Info(ctx, "season database written",
		logger.String("path", *out),
		logger.Int("characters", *characters),
		logger.Int("runs", len(generated)),
	)
	return 0
}
