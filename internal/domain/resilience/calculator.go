// Package resilience computes resilience levels and achievement dates from
// completion history.
//
// A character's resilience at an instant is the minimum, across a fixed set of
// dungeons, of the highest difficulty level completed in each dungeon strictly
// before that instant. Coverage is all-or-nothing: a single uncovered dungeon
// yields zero regardless of the others.
package resilience

import (
	"context"

	"github.com/keldra/resirel/internal/domain/model"
	"github.com/keldra/resirel/pkg/metrics"
)

// defaultMinLevel is the lower bound of the level window considered by Level.
const defaultMinLevel = 18

// History is the read-only completion history the calculator consumes.
// Absent data is reported as an empty map entry or "" rather than an error.
type History interface {
	// MaxLevelByDungeon returns, per dungeon, the highest completed level in
	// [minLevel, maxLevel] with a first-completion strictly before the given
	// instant. Dungeons with no qualifying completion are absent from the map.
	MaxLevelByDungeon(ctx context.Context, characterID string, dungeons []string, minLevel, maxLevel int, before string) (map[string]int, error)

	// EarliestQualifying returns the earliest timestamp at which the character
	// completed the dungeon at minLevel or higher, or "" if it never did.
	EarliestQualifying(ctx context.Context, characterID, dungeon string, minLevel int) (string, error)
}

// Calculator derives resilience values from a History.
type Calculator struct {
	history   History
	minLevel  int
	cacheSize int
	cache     *levelCache
}

// New creates a Calculator reading from the given history.
func New(history History, opts ...Option) *Calculator {
	c := &Calculator{
		history:   history,
		minLevel:  defaultMinLevel,
		cacheSize: defaultCacheSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cacheSize != 0 {
		c.cache = newLevelCache(c.cacheSize)
	}
	return c
}

// Level computes the character's resilience level at the given instant: the
// minimum over per-dungeon maxima within [minLevel, maxLevel], or 0 when any
// dungeon in the set has no qualifying completion. An empty dungeon set is
// vacuously not resilient and yields 0.
//
// Results are memoized per (character, instant). The dungeon set and maxLevel
// are assumed constant for the lifetime of one Calculator; build a fresh
// Calculator per analysis pass.
func (c *Calculator) Level(ctx context.Context, characterID, instant string, dungeons []string, maxLevel int) (int, error) {
	if len(dungeons) == 0 {
		return 0, nil
	}

	var key string
	if c.cache != nil {
		key = characterID + "\x00" + instant
		if level, ok := c.cache.get(key); ok {
			metrics.RecordCacheHit()
			return level, nil
		}
		metrics.RecordCacheMiss()
	}

	maxima, err := c.history.MaxLevelByDungeon(ctx, characterID, dungeons, c.minLevel, maxLevel, instant)
	if err != nil {
		return 0, err
	}

	level := 0
	if len(maxima) == len(dungeons) {
		for _, l := range maxima {
			if level == 0 || l < level {
				level = l
			}
		}
	}

	if c.cache != nil {
		c.cache.put(key, level)
	}
	return level, nil
}

// AchievementDate returns the day the character first satisfied the threshold
// across every dungeon in the set: the latest of the per-dungeon earliest
// completions at minLevel or higher, truncated to day granularity. It returns
// "" when any dungeon (or an empty set) never qualifies.
func (c *Calculator) AchievementDate(ctx context.Context, characterID string, minLevel int, dungeons []string) (string, error) {
	if len(dungeons) == 0 {
		return "", nil
	}

	latest := ""
	for _, dungeon := range dungeons {
		ts, err := c.history.EarliestQualifying(ctx, characterID, dungeon, minLevel)
		if err != nil {
			return "", err
		}
		if ts == "" {
			// One uncovered dungeon means resilience was never achieved.
			return "", nil
		}
		if ts > latest {
			latest = ts
		}
	}
	return model.Day(latest), nil
}
