package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/keldra/resirel/internal/domain/model"
)

// MemoryRepository keeps the whole season in nested maps and answers every
// query without touching storage. The edge-building scan performs
// O(characters x dungeons x roster) lookups, so the dataset is loaded exactly
// once up front.
type MemoryRepository struct {
	// characterID -> dungeon -> level -> completion
	completions map[string]map[string]map[int]*model.DungeonCompletion
	// runID -> character ids in roster order
	rosters map[string][]string
	// sorted character ids, computed at load time
	characters []string
}

// NewMemoryRepository loads the season database at path into memory and
// closes the underlying connection before returning.
func NewMemoryRepository(ctx context.Context, path string) (*MemoryRepository, error) {
	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return NewMemoryRepositoryFromDB(ctx, db)
}

// NewMemoryRepositoryFromDB bulk-loads the season from an already-open
// database. The connection is not closed and may be reused by the caller.
func NewMemoryRepositoryFromDB(ctx context.Context, db *sql.DB) (*MemoryRepository, error) {
	r := &MemoryRepository{
		completions: make(map[string]map[string]map[int]*model.DungeonCompletion),
		rosters:     make(map[string][]string),
	}
	if err := r.load(ctx, db); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadDataset, err)
	}
	return r, nil
}

func (r *MemoryRepository) load(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `
		SELECT character_id, dungeon_name, difficulty_level,
		       first_completed, first_run_id
		FROM character_dungeon_stats`)
	if err != nil {
		return fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		comp := &model.DungeonCompletion{}
		if err := rows.Scan(&comp.CharacterID, &comp.Dungeon, &comp.Level,
			&comp.FirstCompleted, &comp.RunID); err != nil {
			return fmt.Errorf("scan completion: %w", err)
		}
		// Duplicate (character, dungeon, level) rows: last row wins, matching
		// the upstream loader. No tie-break is defined in the source data.
		r.insert(comp)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read completions: %w", err)
	}

	rosterRows, err := db.QueryContext(ctx, `
		SELECT run_id, character_id FROM roster ORDER BY run_id`)
	if err != nil {
		return fmt.Errorf("query rosters: %w", err)
	}
	defer rosterRows.Close()

	for rosterRows.Next() {
		var runID, characterID string
		if err := rosterRows.Scan(&runID, &characterID); err != nil {
			return fmt.Errorf("scan roster: %w", err)
		}
		r.rosters[runID] = append(r.rosters[runID], characterID)
	}
	if err := rosterRows.Err(); err != nil {
		return fmt.Errorf("read rosters: %w", err)
	}

	r.characters = make([]string, 0, len(r.completions))
	for id := range r.completions {
		r.characters = append(r.characters, id)
	}
	sort.Strings(r.characters)
	return nil
}

func (r *MemoryRepository) insert(comp *model.DungeonCompletion) {
	byDungeon, ok := r.completions[comp.CharacterID]
	if !ok {
		byDungeon = make(map[string]map[int]*model.DungeonCompletion)
		r.completions[comp.CharacterID] = byDungeon
	}
	byLevel, ok := byDungeon[comp.Dungeon]
	if !ok {
		byLevel = make(map[int]*model.DungeonCompletion)
		byDungeon[comp.Dungeon] = byLevel
	}
	byLevel[comp.Level] = comp
}

// Characters returns all known character ids, sorted.
func (r *MemoryRepository) Characters(_ context.Context) ([]string, error) {
	return r.characters, nil
}

// Completion returns the first completion at exactly the given level, or nil.
func (r *MemoryRepository) Completion(_ context.Context, characterID, dungeon string, level int) (*model.DungeonCompletion, error) {
	return r.completions[characterID][dungeon][level], nil
}

// HasHigherCompletion reports a strictly-higher completion strictly before the instant.
func (r *MemoryRepository) HasHigherCompletion(_ context.Context, characterID, dungeon string, level int, before string) (bool, error) {
	for l, comp := range r.completions[characterID][dungeon] {
		if l > level && comp.FirstCompleted < before {
			return true, nil
		}
	}
	return false, nil
}

// MaxLevelByDungeon returns per-dungeon maxima within the level window.
func (r *MemoryRepository) MaxLevelByDungeon(_ context.Context, characterID string, dungeons []string, minLevel, maxLevel int, before string) (map[string]int, error) {
	result := make(map[string]int)
	byDungeon := r.completions[characterID]

	for _, dungeon := range dungeons {
		best := 0
		for level, comp := range byDungeon[dungeon] {
			if level >= minLevel && level <= maxLevel && comp.FirstCompleted < before && level > best {
				best = level
			}
		}
		if best > 0 {
			result[dungeon] = best
		}
	}
	return result, nil
}

// EarliestQualifying returns the earliest completion at minLevel or higher, or "".
func (r *MemoryRepository) EarliestQualifying(_ context.Context, characterID, dungeon string, minLevel int) (string, error) {
	earliest := ""
	for level, comp := range r.completions[characterID][dungeon] {
		if level >= minLevel && (earliest == "" || comp.FirstCompleted < earliest) {
			earliest = comp.FirstCompleted
		}
	}
	return earliest, nil
}

// Roster returns the run's participants.
func (r *MemoryRepository) Roster(_ context.Context, runID string) ([]string, error) {
	return r.rosters[runID], nil
}

// Close is a no-op; the database connection was released after loading.
func (r *MemoryRepository) Close() error {
	return nil
}
