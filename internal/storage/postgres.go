package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chad-murphy-data/android-converter/internal/model"
)

// PostgresStore persists records in Postgres via a pgx connection pool.
// Used when multiple simulator instances share one state store.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore connects to the database and verifies connectivity.
func NewPostgresStore(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping pool: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// RunMigrations executes unapplied SQL migration files from the provided
// filesystem in order, tracking applied files in schema_migrations so each
// runs at most once.
func (s *PostgresStore) RunMigrations(ctx context.Context, migrationsFS fs.FS) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return fmt.Errorf("storage: create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := s.pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("storage: load applied migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("storage: scan migration version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("storage: read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") || applied[name] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, name)
		if err != nil {
			return fmt.Errorf("storage: read migration %s: %w", name, err)
		}

		s.logger.Info("running migration", "file", name)
		if _, err := s.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("storage: execute migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING`, name,
		); err != nil {
			return fmt.Errorf("storage: record migration %s: %w", name, err)
		}
	}
	return nil
}

// LoadArchetypeState returns the stored record, or the zero state when the
// archetype has never taken a call.
func (s *PostgresStore) LoadArchetypeState(ctx context.Context, style model.Archetype) (model.ArchetypeState, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM archetype_states WHERE style = $1`, string(style),
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.NewArchetypeState(style), nil
	}
	if err != nil {
		return model.ArchetypeState{}, fmt.Errorf("storage: load archetype state: %w", err)
	}

	var state model.ArchetypeState
	if err := json.Unmarshal(raw, &state); err != nil {
		return model.ArchetypeState{}, fmt.Errorf("storage: decode archetype state: %w", err)
	}
	return state, nil
}

// SaveArchetypeState writes the whole record, replacing any prior version.
// Last writer wins; concurrent finishes for the same archetype may lose an
// update, which is acceptable for advisory coaching data.
func (s *PostgresStore) SaveArchetypeState(ctx context.Context, state model.ArchetypeState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("storage: encode archetype state: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO archetype_states (style, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (style) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		string(state.Style), raw,
	)
	if err != nil {
		return fmt.Errorf("storage: save archetype state: %w", err)
	}
	return nil
}

// AppendCall adds one finished call to the log.
func (s *PostgresStore) AppendCall(ctx context.Context, record model.CallRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("storage: encode call record: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO call_logs (call_id, created_at, outcome, points, record) VALUES ($1, $2, $3, $4, $5)`,
		record.CallID, record.Timestamp.UTC(), string(record.Outcome), record.Points, raw,
	)
	if err != nil {
		return fmt.Errorf("storage: append call: %w", err)
	}
	return nil
}

// CallHistory returns the most recent calls, newest first.
func (s *PostgresStore) CallHistory(ctx context.Context, limit int) ([]model.CallRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM call_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: call history: %w", err)
	}
	defer rows.Close()

	var records []model.CallRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("storage: scan call record: %w", err)
		}
		var rec model.CallRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("storage: decode call record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Leaderboard returns archetypes with at least one call, by points descending.
func (s *PostgresStore) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT state FROM archetype_states`)
	if err != nil {
		return nil, fmt.Errorf("storage: leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("storage: scan archetype state: %w", err)
		}
		var state model.ArchetypeState
		if err := json.Unmarshal(raw, &state); err != nil {
			s.logger.Warn("leaderboard: skipping corrupt archetype state", "error", err)
			continue
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
func (s *PostgresStore) OverallStats(ctx context.Context) (model.OverallStats, error) {
	var stats model.OverallStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(points), 0),
			COUNT(*) FILTER (WHERE outcome = 'conversion'),
			COUNT(*) FILTER (WHERE outcome = 'fraud_caught'),
			COUNT(*) FILTER (WHERE outcome = 'fraud_missed'),
			COUNT(*) FILTER (WHERE outcome = 'missed_opp')
		FROM call_logs`,
	).Scan(&stats.TotalCalls, &stats.TotalPoints, &stats.Conversions,
		&stats.FraudsCaught, &stats.FraudsMissed, &stats.MissedOpps)
	if err != nil {
		return model.OverallStats{}, fmt.Errorf("storage: overall stats: %w", err)
	}
	return stats, nil
}

// Close shuts down the connection pool.
func (s *PostgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
