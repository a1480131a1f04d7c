// Package storage persists per-archetype state and the append-only call log.
//
// Records are read whole and written whole: the archetype store follows
// load-for-update / save semantics with last-writer-wins merges (the data
// is advisory coaching material, not correctness-critical). Two backends
// are provided: SQLite for local play and Postgres for shared deployments.
package storage

import (
	"context"
	"errors"

	"github.com/chad-murphy-data/android-converter/internal/model"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store is the persistence collaborator the call service depends on.
type Store interface {
	// LoadArchetypeState returns the persistent record for an archetype,
	// or the zero state if the archetype has never taken a call.
	LoadArchetypeState(ctx context.Context, style model.Archetype) (model.ArchetypeState, error)

	// SaveArchetypeState writes the whole record for an archetype.
	SaveArchetypeState(ctx context.Context, state model.ArchetypeState) error

	// AppendCall adds one finished call to the append-only log.
	AppendCall(ctx context.Context, record model.CallRecord) error

	// CallHistory returns the most recent calls, newest first.
	CallHistory(ctx context.Context, limit int) ([]model.CallRecord, error)

	// Leaderboard returns archetypes with at least one call, sorted by
	// total points descending.
	Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)

	// OverallStats aggregates outcomes across all logged calls.
	OverallStats(ctx context.Context) (model.OverallStats, error)

	// Close releases the backend's resources.
	Close(ctx context.Context) error
}

func leaderboardEntry(s model.ArchetypeState) model.LeaderboardEntry {
	rate := 0.0
	if s.TotalCalls > 0 {
		rate = float64(int(1000*float64(s.Conversions)/float64(s.TotalCalls)+0.5)) / 10
	}
	return model.LeaderboardEntry{
		Style:          s.Style,
		TotalCalls:     s.TotalCalls,
		TotalPoints:    s.TotalPoints,
		Conversions:    s.Conversions,
		FraudsCaught:   s.FraudsCaught,
		FraudsMissed:   s.FraudsMissed,
		ConversionRate: rate,
	}
}
