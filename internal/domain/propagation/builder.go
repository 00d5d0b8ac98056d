// Package propagation builds the influence graph between resilient characters
// and the characters they grouped with.
//
// An edge (source -> target) asserts that source's resilience was already at or
// above the target level at the instant target first completed a dungeon at the
// target level, and that both were in the roster of that run.
package propagation

import (
	"context"
	"sync"

	"github.com/keldra/resirel/internal/domain/model"
	"github.com/keldra/resirel/pkg/logger"
	"github.com/keldra/resirel/pkg/metrics"
)

const defaultProgressEvery = 1000

// History is the read-only completion history the builder consumes.
// Absent data is reported as nil/false/empty rather than an error.
type History interface {
	// Completion returns the character's first completion of dungeon at exactly
	// the given level, or nil if there is none.
	Completion(ctx context.Context, characterID, dungeon string, level int) (*model.DungeonCompletion, error)

	// HasHigherCompletion reports whether the character completed the dungeon
	// at a level strictly above the given one with a timestamp strictly before
	// the given instant.
	HasHigherCompletion(ctx context.Context, characterID, dungeon string, level int, before string) (bool, error)

	// Roster returns the character ids that participated in the run.
	Roster(ctx context.Context, runID string) ([]string, error)
}

// Scorer computes a character's resilience level at an instant.
// *resilience.Calculator satisfies this.
type Scorer interface {
	Level(ctx context.Context, characterID, instant string, dungeons []string, maxLevel int) (int, error)
}

// Result holds the two edge buckets produced by a build pass. Edges land in
// Resilient when the target character ever achieved full resilience at the
// achievement threshold, and in NonResilient otherwise.
type Result struct {
	Resilient    []model.PropagationEdge
	NonResilient []model.PropagationEdge
}

// Builder scans characters' target-level completions and emits propagation
// edges for roster members whose resilience was already established.
type Builder struct {
	history       History
	scorer        Scorer
	workers       int
	progressEvery int
	logger        logger.Logger
}

// NewBuilder creates a Builder over the given history and scorer.
func NewBuilder(history History, scorer Scorer, opts ...Option) *Builder {
	b := &Builder{
		history:       history,
		scorer:        scorer,
		workers:       1,
		progressEvery: defaultProgressEvery,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = logger.Get().Named("propagation")
	}
	return b
}

// BuildEdges scans every character and returns the propagation edges bucketed
// by whether the target character appears in achievedBy (the achievement-date
// map computed beforehand). The scan is read-only and deterministic up to edge
// order; with workers > 1 the character list is partitioned and the per-worker
// buckets are concatenated in partition order, so the edge sets are identical
// for any worker count.
func (b *Builder) BuildEdges(ctx context.Context, characters []string, achievedBy map[string]string, dungeons []string, targetLevel, maxLevel int) (Result, error) {
	if len(characters) == 0 {
		return Result{}, nil
	}

	if b.workers > 1 && len(characters) > 1 {
		return b.buildParallel(ctx, characters, achievedBy, dungeons, targetLevel, maxLevel)
	}

	var res Result
	for i, characterID := range characters {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		edges, err := b.scanCharacter(ctx, characterID, dungeons, targetLevel, maxLevel)
		if err != nil {
			return Result{}, err
		}
		b.bucket(&res, characterID, achievedBy, edges)

		metrics.RecordCharacterScanned()
		if b.progressEvery > 0 && (i+1)%b.progressEvery == 0 {
			b.logger.Info(ctx, "building edges",
				logger.Int("scanned", i+1),
				logger.Int("total", len(characters)),
			)
		}
	}
	return res, nil
}

// scanCharacter emits the edges targeting one character across all dungeons.
func (b *Builder) scanCharacter(ctx context.Context, characterID string, dungeons []string, targetLevel, maxLevel int) ([]model.PropagationEdge, error) {
	var edges []model.PropagationEdge

	for _, dungeon := range dungeons {
		completion, err := b.history.Completion(ctx, characterID, dungeon, targetLevel)
		if err != nil {
			return nil, err
		}
		if completion == nil {
			continue
		}

		// Supersession: a strictly-higher completion with an earlier timestamp
		// means this record is not the character's breakthrough for the
		// dungeon; backfilled history produces such rows.
		superseded, err := b.history.HasHigherCompletion(ctx, characterID, dungeon, targetLevel, completion.FirstCompleted)
		if err != nil {
			return nil, err
		}
		if superseded {
			continue
		}

		roster, err := b.history.Roster(ctx, completion.RunID)
		if err != nil {
			return nil, err
		}

		for _, otherID := range roster {
			if otherID == characterID {
				continue
			}

			otherLevel, err := b.scorer.Level(ctx, otherID, completion.FirstCompleted, dungeons, maxLevel)
			if err != nil {
				return nil, err
			}
			if otherLevel >= targetLevel {
				edges = append(edges, model.PropagationEdge{
					Source:  otherID,
					Target:  characterID,
					Dungeon: dungeon,
					RunID:   completion.RunID,
				})
			}
		}
	}
	return edges, nil
}

// bucket routes a character's edges by the target character's ever-resilient
// status. The status is evaluated once per character, not per edge.
func (b *Builder) bucket(res *Result, characterID string, achievedBy map[string]string, edges []model.PropagationEdge) {
	if len(edges) == 0 {
		return
	}
	if _, resilientEver := achievedBy[characterID]; resilientEver {
		res.Resilient = append(res.Resilient, edges...)
		metrics.RecordEdges("resilient", len(edges))
	} else {
		res.NonResilient = append(res.NonResilient, edges...)
		metrics.RecordEdges("non_resilient", len(edges))
	}
}

// buildParallel partitions characters into contiguous chunks, scans each chunk
// in its own goroutine, and concatenates the per-chunk buckets in order.
// Safe because the dataset is read-only and no character's edges depend on
// another character's output.
func (b *Builder) buildParallel(ctx context.Context, characters []string, achievedBy map[string]string, dungeons []string, targetLevel, maxLevel int) (Result, error) {
	workers := b.workers
	if workers > len(characters) {
		workers = len(characters)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	parts := make([]Result, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	chunk := (len(characters) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(characters) {
			end = len(characters)
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			for _, characterID := range characters[start:end] {
				if err := ctx.Err(); err != nil {
					errs[w] = err
					return
				}
				edges, err := b.scanCharacter(ctx, characterID, dungeons, targetLevel, maxLevel)
				if err != nil {
					errs[w] = err
					cancel()
					return
				}
				b.bucket(&parts[w], characterID, achievedBy, edges)
				metrics.RecordCharacterScanned()
			}
		}(w, start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return Result{}, err
		}
	}

	var res Result
	for _, p := range parts {
		res.Resilient = append(res.Resilient, p.Resilient...)
		res.NonResilient = append(res.NonResilient, p.NonResilient...)
	}
	return res, nil
}
