// Package repository defines read-only access to a season's completion
// history and its two implementations: a preloaded in-memory store and a
// direct-SQL store over the same SQLite database.
package repository

import (
	"context"

	"github.com/keldra/resirel/internal/domain/model"
)

// Repository answers the history queries the analysis consumes. All lookups
// report absent data as nil/""/empty results, never as errors; errors are
// reserved for storage failures.
type Repository interface {
	// Characters returns all known character ids, sorted.
	Characters(ctx context.Context) ([]string, error)

	// Completion returns the character's first completion of dungeon at
	// exactly the given level, or nil if there is none.
	Completion(ctx context.Context, characterID, dungeon string, level int) (*model.DungeonCompletion, error)

	// HasHigherCompletion reports whether the character completed the dungeon
	// at a level strictly above the given one with a timestamp strictly
	// before the given instant.
	HasHigherCompletion(ctx context.Context, characterID, dungeon string, level int, before string) (bool, error)

	// MaxLevelByDungeon returns, per dungeon, the highest completed level in
	// [minLevel, maxLevel] with a first-completion strictly before the given
	// instant. Dungeons with no qualifying completion are absent, not zero.
	MaxLevelByDungeon(ctx context.Context, characterID string, dungeons []string, minLevel, maxLevel int, before string) (map[string]int, error)

	// EarliestQualifying returns the earliest timestamp at which the
	// character completed the dungeon at minLevel or higher, or "".
	EarliestQualifying(ctx context.Context, characterID, dungeon string, minLevel int) (string, error)

	// Roster returns the character ids that participated in the run.
	Roster(ctx context.Context, runID string) ([]string, error)

	// Close releases any resources held by the repository.
	Close() error
}
