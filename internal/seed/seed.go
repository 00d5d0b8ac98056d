// Package seed generates synthetic season databases for local analysis runs
// and tests. The output schema matches what the repositories read:
// character_dungeon_stats (first completions) and roster (run membership).
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Defaults for the synthetic season.
const (
	defaultCharacters = 200
	defaultRuns       = 2000
	defaultMinLevel   = 2
	defaultMaxLevel   = 25
	rosterSize        = 5
	runSpacing        = 37 * time.Minute
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Config controls the synthetic season shape.
type Config struct {
	Characters int       // number of distinct characters
	Runs       int       // number of group runs
	Dungeons   []string  // tracked dungeon names
	MinLevel   int       // lowest generated difficulty level
	MaxLevel   int       // highest generated difficulty level
	Start      time.Time // timestamp of the first run
	Seed       int64     // rng seed; identical seeds produce identical seasons
}

// withDefaults fills zero fields with sensible values.
func (c Config) withDefaults() Config {
	if c.Characters <= 0 {
		c.Characters = defaultCharacters
	}
	if c.Runs <= 0 {
		c.Runs = defaultRuns
	}
	if c.MinLevel <= 0 {
		c.MinLevel = defaultMinLevel
	}
	if c.MaxLevel < c.MinLevel {
		c.MaxLevel = defaultMaxLevel
	}
	if c.Start.IsZero() {
		c.Start = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	}
	if len(c.Dungeons) == 0 {
		c.Dungeons = DefaultDungeons()
	}
	return c
}

// DefaultDungeons returns the dungeon pool used when none is configured.
func DefaultDungeons() []string {
	return []string{
		"Ara-Kara, City of Echoes",
		"City of Threads",
		"Grim Batol",
		"Mists of Tirna Scithe",
		"Siege of Boralus",
		"The Dawnbreaker",
		"The Necrotic Wake",
		"The Stonevault",
	}
}

// Run is one synthetic group activity.
type Run struct {
	ID          string
	Dungeon     string
	Level       int
	CompletedAt string
	Roster      []string
}

// Generate produces a deterministic synthetic season. Run timestamps increase
// monotonically; rosters hold distinct characters; run ids are stable UUIDs
// derived from the seed and run index.
func Generate(cfg Config) []Run {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic seed for reproducible datasets

	characters := make([]string, cfg.Characters)
	for i := range characters {
		characters[i] = fmt.Sprintf("char-%04d", i+1)
	}

	runs := make([]Run, cfg.Runs)
	for i := range runs {
		roster := pickRoster(rng, characters)
		name := fmt.Sprintf("seed-%d-run-%d", cfg.Seed, i)
		runs[i] = Run{
			ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(),
			Dungeon:     cfg.Dungeons[rng.Intn(len(cfg.Dungeons))],
			Level:       cfg.MinLevel + rng.Intn(cfg.MaxLevel-cfg.MinLevel+1),
			CompletedAt: cfg.Start.Add(time.Duration(i) * runSpacing).UTC().Format(timestampLayout),
			Roster:      roster,
		}
	}
	return runs
}

// pickRoster selects rosterSize distinct characters.
func pickRoster(rng *rand.Rand, characters []string) []string {
	n := rosterSize
	if n > len(characters) {
		n = len(characters)
	}
	picked := rng.Perm(len(characters))[:n]
	roster := make([]string, n)
	for i, idx := range picked {
		roster[i] = characters[idx]
	}
	return roster
}

// Write creates the season schema at path and stores the runs. Each roster
// member's first completion per (dungeon, level) is derived from the
// chronologically first run containing it.
func Write(ctx context.Context, path string, runs []Run) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open seed database: %w", err)
	}
	defer db.Close()

	if err := WriteDB(ctx, db, runs); err != nil {
		return err
	}
	return nil
}

// WriteDB stores the runs into an already-open database.
func WriteDB(ctx context.Context, db *sql.DB, runs []Run) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	type statKey struct {
		characterID string
		dungeon     string
		level       int
	}
	type firstCompletion struct {
		ts    string
		runID string
	}
	firsts := make(map[statKey]firstCompletion)

	insertRoster, err := tx.PrepareContext(ctx, `
		INSERT INTO roster (run_id, character_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare roster insert: %w", err)
	}
	defer insertRoster.Close()

	for _, run := range runs {
		for _, characterID := range run.Roster {
			if _, err := insertRoster.ExecContext(ctx, run.ID, characterID); err != nil {
				return fmt.Errorf("insert roster row: %w", err)
			}
			key := statKey{characterID: characterID, dungeon: run.Dungeon, level: run.Level}
			if first, ok := firsts[key]; !ok || run.CompletedAt < first.ts {
				firsts[key] = firstCompletion{ts: run.CompletedAt, runID: run.ID}
			}
		}
	}

	insertStats, err := tx.PrepareContext(ctx, `
		INSERT INTO character_dungeon_stats
			(character_id, dungeon_name, difficulty_level, first_completed, first_run_id)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare stats insert: %w", err)
	}
	defer insertStats.Close()

	for key, first := range firsts {
		if _, err := insertStats.ExecContext(ctx, key.characterID, key.dungeon, key.level, first.ts, first.runID); err != nil {
			return fmt.Errorf("insert stats row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}

// schema mirrors the layout of the upstream season databases.
const schema = `
CREATE TABLE IF NOT EXISTS character_dungeon_stats (
	character_id     TEXT    NOT NULL,
	dungeon_name     TEXT    NOT NULL,
	difficulty_level INTEGER NOT NULL,
	first_completed  TEXT    NOT NULL,
	first_run_id     TEXT    NOT NULL,
	PRIMARY KEY (character_id, dungeon_name, difficulty_level)
);

CREATE TABLE IF NOT EXISTS roster (
	run_id       TEXT NOT NULL,
	character_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_roster_run ON roster (run_id);
`
