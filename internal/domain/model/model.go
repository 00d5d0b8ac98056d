// Package model contains domain models passed between layers.
package model

import "strings"

// DungeonCompletion records the first time a character cleared a dungeon at a
// specific difficulty level. One row exists per (character, dungeon, level).
type DungeonCompletion struct {
	CharacterID    string // character identifier, e.g. "eu/ravencrest/thrynn"
	Dungeon        string // full dungeon name
	Level          int    // keystone difficulty level, positive
	FirstCompleted string // ISO 8601 millisecond UTC, e.g. "2025-09-24T20:38:11.000Z"
	RunID          string // identifier of the run that produced this completion
}

// PropagationEdge asserts that Source's resilience was already established at
// the moment Target completed Dungeon at the target level in the same run.
type PropagationEdge struct {
	Source  string
	Target  string
	Dungeon string
	RunID   string
}

// Label renders the edge as "SHORT#runID" using the dungeon short-name map.
// Unknown dungeons fall back to the full name.
func (e PropagationEdge) Label(short map[string]string) string {
	s, ok := short[e.Dungeon]
	if !ok {
		s = e.Dungeon
	}
	return s + "#" + e.RunID
}

// Day truncates an ISO 8601 timestamp to day granularity (YYYY-MM-DD).
// Timestamps are kept as strings throughout: the store persists them as TEXT
// and their lexicographic order equals temporal order.
func Day(ts string) string {
	day, _, _ := strings.Cut(ts, "T")
	return day
}
