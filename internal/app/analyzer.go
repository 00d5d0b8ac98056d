// Package app coordinates the analysis pipeline: achievement scan, edge
// building, and result export, swept across target levels.
package app

import (
	"context"
	"time"

	"github.com/keldra/resirel/internal/adapters/export"
	"github.com/keldra/resirel/internal/adapters/repository"
	"github.com/keldra/resirel/internal/domain/propagation"
	"github.com/keldra/resirel/internal/domain/resilience"
	"github.com/keldra/resirel/pkg/logger"
	"github.com/keldra/resirel/pkg/metrics"
)

// Report summarizes one level of the sweep.
type Report struct {
	// Level is the resilience key level this pass targeted.
	Level int

	// Characters is the number of characters scanned.
	Characters int

	// Resilient counts the characters that ever achieved resilience at Level.
	Resilient int

	// ResilientEdges and NonResilientEdges count the edges in each bucket.
	ResilientEdges    int
	NonResilientEdges int

	// Files lists the result files written for this level, empty when the
	// level was skipped because nobody achieved resilience.
	Files []string
}

// Analyzer runs the full analysis over one season repository.
type Analyzer struct {
	repo     repository.Repository
	dungeons []string
	short    map[string]string

	targetLevel int
	maxLevel    int
	minLevel    int
	workers     int
	cacheSize   int

	outputPrefix func(level int) string
	logger       logger.Logger
}

// New creates an Analyzer over the given repository and dungeon pool.
func New(repo repository.Repository, dungeons []string, short map[string]string, opts ...Option) *Analyzer {
	a := &Analyzer{
		repo:         repo,
		dungeons:     dungeons,
		short:        short,
		targetLevel:  defaultTargetLevel,
		maxLevel:     defaultMaxLevel,
		minLevel:     defaultMinLevel,
		workers:      1,
		cacheSize:    defaultCacheSize,
		outputPrefix: nil,
		logger:       nil,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.outputPrefix == nil {
		a.outputPrefix = defaultOutputPrefix
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("analyzer")
	}
	return a
}

// Run executes one analysis pass per level from the target level up to the
// maximum level, writing result files for every level where at least one
// character achieved resilience. It returns one Report per level.
func (a *Analyzer) Run(ctx context.Context) ([]Report, error) {
	start := time.Now()
	characters, err := a.repo.Characters(ctx)
	if err != nil {
		return nil, err
	}
	metrics.ObserveRepositoryLoad(time.Since(start).Seconds())

	a.logger.Info(ctx, "starting analysis sweep",
		logger.Int("characters", len(characters)),
		logger.Int("targetLevel", a.targetLevel),
		logger.Int("maxLevel", a.maxLevel),
	)

	reports := make([]Report, 0, a.maxLevel-a.targetLevel+1)
	for level := a.targetLevel; level <= a.maxLevel; level++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		report, err := a.runLevel(ctx, characters, level)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
		metrics.RecordLevelCompleted()
	}

	a.logger.Info(ctx, "analysis sweep finished",
		logger.Int("levels", len(reports)),
	)
	return reports, nil
}

// runLevel executes one full pass at a single target level.
func (a *Analyzer) runLevel(ctx context.Context, characters []string, level int) (Report, error) {
	log := a.logger.Named("level")
	log.Info(ctx, "running analysis",
		logger.Int("level", level),
	)

	// A fresh calculator per level: the memo cache keys on (character,
	// instant) and is only valid for one dungeon set and level window.
	calc := resilience.New(a.repo,
		resilience.WithMinLevel(a.minLevel),
		resilience.WithCacheSize(a.cacheSize),
	)

	scanStart := time.Now()
	achievedBy := make(map[string]string)
	for _, characterID := range characters {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		date, err := calc.AchievementDate(ctx, characterID, level, a.dungeons)
		if err != nil {
			return Report{}, err
		}
		if date != "" {
			achievedBy[characterID] = date
		}
	}
	metrics.ObserveAchievementScan(time.Since(scanStart).Seconds())
	metrics.UpdateResilientCharacters(len(achievedBy))

	log.Info(ctx, "achievement scan done",
		logger.Int("level", level),
		logger.Int("resilient", len(achievedBy)),
	)

	if len(achievedBy) == 0 {
		log.Warn(ctx, "no character achieved resilience, skipping level",
			logger.Int("level", level),
		)
		return Report{Level: level, Characters: len(characters)}, nil
	}

	builder := propagation.NewBuilder(a.repo, calc,
		propagation.WithWorkers(a.workers),
		propagation.WithLogger(a.logger.Named("propagation")),
	)

	buildStart := time.Now()
	res, err := builder.BuildEdges(ctx, characters, achievedBy, a.dungeons, level, a.maxLevel)
	if err != nil {
		return Report{}, err
	}
	metrics.ObserveEdgeBuild(time.Since(buildStart).Seconds())

	log.Info(ctx, "edge build done",
		logger.Int("level", level),
		logger.Int("resilientEdges", len(res.Resilient)),
		logger.Int("nonResilientEdges", len(res.NonResilient)),
	)

	files, err := a.writeResults(level, achievedBy, res)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Level:             level,
		Characters:        len(characters),
		Resilient:         len(achievedBy),
		ResilientEdges:    len(res.Resilient),
		NonResilientEdges: len(res.NonResilient),
		Files:             files,
	}, nil
}

// writeResults serializes one level's outputs and returns the file paths.
func (a *Analyzer) writeResults(level int, achievedBy map[string]string, res propagation.Result) ([]string, error) {
	writer := export.NewWriter(a.outputPrefix(level))

	tsFile, err := writer.WriteTimestamps(achievedBy)
	if err != nil {
		return nil, err
	}
	downFile, err := writer.WriteEdges(export.GroupEdges(res.Resilient, a.short), export.KindDown)
	if err != nil {
		return nil, err
	}
	nonResilFile, err := writer.WriteEdges(export.GroupEdges(res.NonResilient, a.short), export.KindNonResil)
	if err != nil {
		return nil, err
	}

	return []string{tsFile, downFile, nonResilFile}, nil
}
