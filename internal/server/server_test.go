package server_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chad-murphy-data/android-converter/internal/model"
	"github.com/chad-murphy-data/android-converter/internal/server"
	"github.com/chad-murphy-data/android-converter/internal/service/call"
)

type fakeStore struct {
	mu     sync.Mutex
	states map[model.Archetype]model.ArchetypeState
	calls  []model.CallRecord

	statsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: map[model.Archetype]model.ArchetypeState{}}
}

func (f *fakeStore) LoadArchetypeState(_ context.Context, style model.Archetype) (model.ArchetypeState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.states[style]; ok {
		return s, nil
	}
	return model.NewArchetypeState(style), nil
}

func (f *fakeStore) SaveArchetypeState(_ context.Context, state model.ArchetypeState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[state.Style] = state
	return nil
}

func (f *fakeStore) AppendCall(_ context.Context, record model.CallRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, record)
	return nil
}

func (f *fakeStore) CallHistory(_ context.Context, limit int) ([]model.CallRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.CallRecord{}
	for i := len(f.calls) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.calls[i])
	}
	return out, nil
}

func (f *fakeStore) Leaderboard(context.Context) ([]model.LeaderboardEntry, error) {
	return []model.LeaderboardEntry{
		{Style: model.ArchetypeCloser, TotalCalls: 3, TotalPoints: 12, Conversions: 2, ConversionRate: 66.7},
	}, nil
}

func (f *fakeStore) OverallStats(context.Context) (model.OverallStats, error) {
	if f.statsErr != nil {
		return model.OverallStats{}, f.statsErr
	}
	return model.OverallStats{TotalCalls: 5, TotalPoints: 9}, nil
}

func (f *fakeStore) Close(context.Context) error { return nil }

// fakeRunner pushes a scripted event sequence to the sink and returns a
// fixed record.
type fakeRunner struct {
	record model.CallRecord
}

func (r *fakeRunner) Run(_ context.Context, sink call.EventSink, warmup bool) (model.CallRecord, error) {
	agent := model.Agent{Name: "Dana", Style: model.ArchetypeCloser}
	sink.Send(model.CallEvent{Type: model.EventCallStart, CallID: r.record.CallID, Agent: &agent, WarmupMode: warmup})
	sink.Send(model.CallEvent{Type: model.EventMessage, CallID: r.record.CallID, Speaker: model.SpeakerAgent, Text: "Hi there!"})
	sink.Send(model.CallEvent{Type: model.EventCallEnd, CallID: r.record.CallID, Summary: &model.CallEndSummary{
		CallID:  r.record.CallID,
		Outcome: r.record.Outcome,
		Points:  r.record.Points,
	}})
	return r.record, nil
}

func newTestServer(t *testing.T, store *fakeStore) *server.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return server.New(server.ServerConfig{
		Store: store,
		Runner: &fakeRunner{record: model.CallRecord{
			CallID:  "call-1",
			Outcome: model.OutcomeConversion,
			Points:  5,
		}},
		Broker:  server.NewBroker(logger),
		Logger:  logger,
		Port:    8080,
		Version: "test",
	})
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func doRequest(t *testing.T, srv *server.Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestServer(t, newFakeStore()), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestStats(t *testing.T) {
	rec := doRequest(t, newTestServer(t, newFakeStore()), http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var stats model.OverallStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 5, stats.TotalCalls)
	assert.Equal(t, 9, stats.TotalPoints)
}

func TestLeaderboard(t *testing.T) {
	rec := doRequest(t, newTestServer(t, newFakeStore()), http.MethodGet, "/api/leaderboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var entries []model.LeaderboardEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, model.ArchetypeCloser, entries[0].Style)
}

func TestListArchetypes(t *testing.T) {
	rec := doRequest(t, newTestServer(t, newFakeStore()), http.MethodGet, "/api/agents")
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var infos []model.ArchetypeInfo
	require.NoError(t, json.Unmarshal(env.Data, &infos))
	assert.Len(t, infos, len(model.Archetypes))
}

func TestArchetypeStats(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	rec := doRequest(t, srv, http.MethodGet, "/api/agents/closer")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/agents/wizard")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryLimitValidation(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	rec := doRequest(t, srv, http.MethodGet, "/api/history?limit=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/history?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/history?limit=10")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunCall(t *testing.T) {
	rec := doRequest(t, newTestServer(t, newFakeStore()), http.MethodPost, "/api/calls")
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var record model.CallRecord
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, "call-1", record.CallID)
	assert.Equal(t, model.OutcomeConversion, record.Outcome)
}

func TestCallStreamDeliversSSE(t *testing.T) {
	rec := doRequest(t, newTestServer(t, newFakeStore()), http.MethodGet, "/api/calls/stream")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: call_start\n")
	assert.Contains(t, body, "event: message\n")
	assert.Contains(t, body, "event: call_end\n")

	// Each data line is a standalone JSON event payload.
	for _, line := range strings.Split(body, "\n") {
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var ev model.CallEvent
			require.NoError(t, json.Unmarshal([]byte(data), &ev))
			assert.Equal(t, "call-1", ev.CallID)
		}
	}
}

func TestCallStreamWarmupFlag(t *testing.T) {
	rec := doRequest(t, newTestServer(t, newFakeStore()), http.MethodGet, "/api/calls/stream?warmup=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"warmup_mode":true`)
}

func TestWarmupToggle(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	decode := func(rec *httptest.ResponseRecorder) bool {
		var env envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		var body struct {
			Warmup bool `json:"warmup"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &body))
		return body.Warmup
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/warmup")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode(rec), "warmup starts off")

	rec = doRequest(t, srv, http.MethodPost, "/api/warmup")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(rec))

	// Server-wide mode becomes the default for new calls.
	rec = doRequest(t, srv, http.MethodGet, "/api/calls/stream")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"warmup_mode":true`)

	// An explicit per-call param still overrides it.
	rec = doRequest(t, srv, http.MethodGet, "/api/calls/stream?warmup=0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"warmup_mode":false`)

	rec = doRequest(t, srv, http.MethodPost, "/api/warmup")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode(rec), "second toggle flips back")
}
