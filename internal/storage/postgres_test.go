package storage_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/chad-murphy-data/android-converter/internal/model"
	"github.com/chad-murphy-data/android-converter/internal/storage"
	"github.com/chad-murphy-data/android-converter/migrations"
)

// startPostgres spins up a throwaway Postgres container and returns a
// migrated store. Skips the test when no container runtime is available.
func startPostgres(t *testing.T) *storage.PostgresStore {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image: "postgres:16-alpine",
		Env: map[string]string{
			"POSTGRES_USER":     "sim",
			"POSTGRES_PASSWORD": "sim",
			"POSTGRES_DB":       "sim_test",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("container runtime unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://sim:sim@%s:%s/sim_test?sslmode=disable", host, port.Port())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.NewPostgresStore(ctx, dsn, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	require.NoError(t, store.RunMigrations(ctx, migrations.FS))
	// Running again must be a no-op.
	require.NoError(t, store.RunMigrations(ctx, migrations.FS))

	return store
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	s := startPostgres(t)
	ctx := context.Background()

	t.Run("archetype state round trip", func(t *testing.T) {
		state, err := s.LoadArchetypeState(ctx, model.ArchetypeGambler)
		require.NoError(t, err)
		assert.Equal(t, 0, state.TotalCalls)

		state.TotalCalls = 2
		state.TotalPoints = -4
		state.FraudsMissed = 1
		state.Patterns = []string{"urgency on fifty packs is a tell"}
		require.NoError(t, s.SaveArchetypeState(ctx, state))

		loaded, err := s.LoadArchetypeState(ctx, model.ArchetypeGambler)
		require.NoError(t, err)
		assert.Equal(t, state, loaded)
	})

	t.Run("call log and stats", func(t *testing.T) {
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		require.NoError(t, s.AppendCall(ctx, sampleRecord("pg1", model.OutcomeConversion, 5, base)))
		require.NoError(t, s.AppendCall(ctx, sampleRecord("pg2", model.OutcomeFraudMissed, -15, base.Add(time.Minute))))

		history, err := s.CallHistory(ctx, 10)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "pg2", history[0].CallID, "newest first")
		assert.Equal(t, "pg1", history[1].CallID)
		assert.Equal(t, "Jordan", history[0].Customer.Name)

		stats, err := s.OverallStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.OverallStats{
			TotalCalls: 2, TotalPoints: -10,
			Conversions: 1, FraudsMissed: 1,
		}, stats)
	})

	t.Run("duplicate call id rejected", func(t *testing.T) {
		rec := sampleRecord("pg-dup", model.OutcomeConversion, 1, time.Now().UTC())
		require.NoError(t, s.AppendCall(ctx, rec))
		assert.Error(t, s.AppendCall(ctx, rec))
	})

	t.Run("leaderboard", func(t *testing.T) {
		detective := model.NewArchetypeState(model.ArchetypeDetective)
		detective.TotalCalls = 5
		detective.TotalPoints = 30
		detective.Conversions = 2
		require.NoError(t, s.SaveArchetypeState(ctx, detective))

		entries, err := s.Leaderboard(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, model.ArchetypeDetective, entries[0].Style)
		assert.InDelta(t, 40.0, entries[0].ConversionRate, 0.01)
	})
}
