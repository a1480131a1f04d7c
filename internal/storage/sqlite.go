package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chad-murphy-data/android-converter/internal/model"
)

// SQLiteStore persists records in a local SQLite file. This is the default
// backend for single-operator play.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("storage: mkdir %s: %w", dir, err)
			}
		}
		path += "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}

	// Single connection avoids write contention at this scale.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS archetype_states (
			style      TEXT PRIMARY KEY,
			state      TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS call_logs (
			call_id    TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			outcome    TEXT NOT NULL,
			points     INTEGER NOT NULL,
			record     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_call_logs_created ON call_logs(created_at);
	`)
	return err
}

// LoadArchetypeState returns the stored record, or the zero state when the
// archetype has never taken a call.
func (s *SQLiteStore) LoadArchetypeState(ctx context.Context, style model.Archetype) (model.ArchetypeState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM archetype_states WHERE style = ?`, string(style),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewArchetypeState(style), nil
	}
	if err != nil {
		return model.ArchetypeState{}, fmt.Errorf("storage: load archetype state: %w", err)
	}

	var state model.ArchetypeState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return model.ArchetypeState{}, fmt.Errorf("storage: decode archetype state: %w", err)
	}
	return state, nil
}

// SaveArchetypeState writes the whole record, replacing any prior version.
func (s *SQLiteStore) SaveArchetypeState(ctx context.Context, state model.ArchetypeState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("storage: encode archetype state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO archetype_states (style, state, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(style) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		string(state.Style), string(raw),
	)
	if err != nil {
		return fmt.Errorf("storage: save archetype state: %w", err)
	}
	return nil
}

// AppendCall adds one finished call to the log.
func (s *SQLiteStore) AppendCall(ctx context.Context, record model.CallRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("storage: encode call record: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO call_logs (call_id, created_at, outcome, points, record) VALUES (?, ?, ?, ?, ?)`,
		record.CallID, record.Timestamp.UTC().Format(time.RFC3339Nano),
		string(record.Outcome), record.Points, string(raw),
	)
	if err != nil {
		return fmt.Errorf("storage: append call: %w", err)
	}
	return nil
}

// CallHistory returns the most recent calls, newest first.
func (s *SQLiteStore) CallHistory(ctx context.Context, limit int) ([]model.CallRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM call_logs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: call history: %w", err)
	}
	defer rows.Close()

	var records []model.CallRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("storage: scan call record: %w", err)
		}
		var rec model.CallRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("storage: decode call record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Leaderboard returns archetypes with at least one call, by points descending.
func (s *SQLiteStore) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state FROM archetype_states`)
	if err != nil {
		return nil, fmt.Errorf("storage: leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("storage: scan archetype state: %w", err)
		}
		var state model.ArchetypeState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			continue // skip corrupt records rather than failing the board
		}
		if state.TotalCalls > 0 {
			entries = append(entries, leaderboardEntry(state))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TotalPoints > entries[j].TotalPoints
	})
	return entries, nil
}

// OverallStats aggregates outcomes across all logged calls.
func (s *SQLiteStore) OverallStats(ctx context.Context) (model.OverallStats, error) {
	var stats model.OverallStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(points), 0),
			COALESCE(SUM(CASE WHEN outcome = 'conversion' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'fraud_caught' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'fraud_missed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'missed_opp' THEN 1 ELSE 0 END), 0)
		FROM call_logs`,
	).Scan(&stats.TotalCalls, &stats.TotalPoints, &stats.Conversions,
		&stats.FraudsCaught, &stats.FraudsMissed, &stats.MissedOpps)
	if err != nil {
		return model.OverallStats{}, fmt.Errorf("storage: overall stats: %w", err)
	}
	return stats, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}
