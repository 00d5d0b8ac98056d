package app

import (
	"fmt"

	"github.com/keldra/resirel/pkg/logger"
)

const (
	defaultTargetLevel = 20
	defaultMaxLevel    = 25
	defaultMinLevel    = 18
	defaultCacheSize   = 65536
)

// defaultOutputPrefix names result files "resi<level>" in the working
// directory when no prefix function is configured.
func defaultOutputPrefix(level int) string {
	return fmt.Sprintf("resi%d", level)
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithTargetLevel sets the resilience key level the sweep starts at.
func WithTargetLevel(level int) Option {
	return func(a *Analyzer) {
		if level > 0 {
			a.targetLevel = level
		}
	}
}

// WithMaxLevel sets the level the sweep ends at, inclusive. It also bounds
// the level window of resilience calculations.
func WithMaxLevel(level int) Option {
	return func(a *Analyzer) {
		if level > 0 {
			a.maxLevel = level
		}
	}
}

// WithMinLevel sets the lower bound of the resilience level window.
func WithMinLevel(level int) Option {
	return func(a *Analyzer) {
		if level > 0 {
			a.minLevel = level
		}
	}
}

// WithWorkers sets the number of goroutines used to build edges.
func WithWorkers(workers int) Option {
	return func(a *Analyzer) {
		if workers > 0 {
			a.workers = workers
		}
	}
}

// WithCacheSize bounds the resilience memo cache. Zero disables it, negative
// leaves it unbounded.
func WithCacheSize(size int) Option {
	return func(a *Analyzer) {
		a.cacheSize = size
	}
}

// WithOutputPrefix sets the function mapping a target level to the path
// prefix of that level's result files.
func WithOutputPrefix(prefix func(level int) string) Option {
	return func(a *Analyzer) {
		if prefix != nil {
			a.outputPrefix = prefix
		}
	}
}

// WithLogger sets a custom logger for the analyzer.
func WithLogger(l logger.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}
