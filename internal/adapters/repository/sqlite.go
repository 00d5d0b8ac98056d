package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/keldra/resirel/internal/domain/model"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// SQLiteRepository answers every query with a direct SQL statement. Timestamps
// are TEXT columns compared lexicographically, which matches temporal order
// for the millisecond-UTC format the log uses.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the season database at path.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

// openDatabase opens a SQLite database and applies the recommended pragmas.
func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenDatabase, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrOpenDatabase, err)
	}
	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrOpenDatabase, err)
	}
	return db, nil
}

// applyPragmas configures SQLite for this read-mostly workload.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Characters returns all distinct character ids, sorted.
func (r *SQLiteRepository) Characters(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT character_id
		FROM character_dungeon_stats
		ORDER BY character_id`)
	if err != nil {
		return nil, fmt.Errorf("query characters: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Completion returns the first completion at exactly the given level, or nil.
func (r *SQLiteRepository) Completion(ctx context.Context, characterID, dungeon string, level int) (*model.DungeonCompletion, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT first_completed, first_run_id
		FROM character_dungeon_stats
		WHERE character_id = ? AND dungeon_name = ? AND difficulty_level = ?
		LIMIT 1`,
		characterID, dungeon, level)

	var firstCompleted, runID string
	if err := row.Scan(&firstCompleted, &runID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query completion: %w", err)
	}
	return &model.DungeonCompletion{
		CharacterID:    characterID,
		Dungeon:        dungeon,
		Level:          level,
		FirstCompleted: firstCompleted,
		RunID:          runID,
	}, nil
}

// HasHigherCompletion reports a strictly-higher completion strictly before the instant.
func (r *SQLiteRepository) HasHigherCompletion(ctx context.Context, characterID, dungeon string, level int, before string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT 1
		FROM character_dungeon_stats
		WHERE character_id = ? AND dungeon_name = ?
		  AND difficulty_level > ? AND first_completed < ?
		LIMIT 1`,
		characterID, dungeon, level, before)

	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("query higher completion: %w", err)
	}
	return true, nil
}

// MaxLevelByDungeon aggregates per-dungeon maxima in one batch query.
func (r *SQLiteRepository) MaxLevelByDungeon(ctx context.Context, characterID string, dungeons []string, minLevel, maxLevel int, before string) (map[string]int, error) {
	if len(dungeons) == 0 {
		return map[string]int{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(dungeons)), ",")
	args := make([]any, 0, len(dungeons)+4)
	args = append(args, characterID)
	for _, d := range dungeons {
		args = append(args, d)
	}
	args = append(args, minLevel, maxLevel, before)

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT dungeon_name, MAX(difficulty_level)
		FROM character_dungeon_stats
		WHERE character_id = ?
		  AND dungeon_name IN (%s)
		  AND difficulty_level BETWEEN ? AND ?
		  AND first_completed < ?
		GROUP BY dungeon_name`, placeholders),
		args...)
	if err != nil {
		return nil, fmt.Errorf("query max levels: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var dungeon string
		var level int
		if err := rows.Scan(&dungeon, &level); err != nil {
			return nil, fmt.Errorf("scan max level: %w", err)
		}
		result[dungeon] = level
	}
	return result, rows.Err()
}

// EarliestQualifying returns the earliest completion at minLevel or higher, or "".
func (r *SQLiteRepository) EarliestQualifying(ctx context.Context, characterID, dungeon string, minLevel int) (string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT MIN(first_completed)
		FROM character_dungeon_stats
		WHERE character_id = ? AND dungeon_name = ? AND difficulty_level >= ?`,
		characterID, dungeon, minLevel)

	var earliest sql.NullString
	if err := row.Scan(&earliest); err != nil {
		return "", fmt.Errorf("query earliest completion: %w", err)
	}
	if !earliest.Valid {
		return "", nil
	}
	return earliest.String, nil
}

// Roster returns the run's participants.
func (r *SQLiteRepository) Roster(ctx context.Context, runID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT character_id FROM roster WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan roster member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
