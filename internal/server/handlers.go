package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chad-murphy-data/android-converter/internal/model"
	"github.com/chad-murphy-data/android-converter/internal/persona"
	"github.com/chad-murphy-data/android-converter/internal/storage"
)

// Handlers holds the dependencies shared by all HTTP handlers.
type Handlers struct {
	store   storage.Store
	runner  Runner
	broker  *Broker
	logger  *slog.Logger
	version string

	// warmup is the server-wide default mode for new calls. A warmup
	// query parameter on an individual call overrides it.
	warmup atomic.Bool
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// HandleStats handles GET /api/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.OverallStats(r.Context())
	if err != nil {
		h.logger.Error("stats query failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load stats")
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// HandleLeaderboard handles GET /api/leaderboard.
func (h *Handlers) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Leaderboard(r.Context())
	if err != nil {
		h.logger.Error("leaderboard query failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load leaderboard")
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// HandleListArchetypes handles GET /api/agents.
func (h *Handlers) HandleListArchetypes(w http.ResponseWriter, r *http.Request) {
	infos := make([]model.ArchetypeInfo, 0, len(model.Archetypes))
	for _, style := range model.Archetypes {
		infos = append(infos, persona.ArchetypeInfo(style))
	}
	writeJSON(w, r, http.StatusOK, infos)
}

type archetypeStatsResponse struct {
	Info  model.ArchetypeInfo  `json:"info"`
	State model.ArchetypeState `json:"state"`
}

// HandleArchetypeStats handles GET /api/agents/{style}.
func (h *Handlers) HandleArchetypeStats(w http.ResponseWriter, r *http.Request) {
	style := model.Archetype(r.PathValue("style"))

	known := false
	for _, a := range model.Archetypes {
		if a == style {
			known = true
			break
		}
	}
	if !known {
		writeError(w, r, http.StatusNotFound, "not_found", "unknown archetype")
		return
	}

	state, err := h.store.LoadArchetypeState(r.Context(), style)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.logger.Error("archetype state query failed", "style", style, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load archetype state")
		return
	}

	writeJSON(w, r, http.StatusOK, archetypeStatsResponse{
		Info:  persona.ArchetypeInfo(style),
		State: state,
	})
}

// HandleHistory handles GET /api/history?limit=N.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			writeError(w, r, http.StatusBadRequest, "invalid_request", "limit must be in 1-200")
			return
		}
		limit = n
	}

	records, err := h.store.CallHistory(r.Context(), limit)
	if err != nil {
		h.logger.Error("history query failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load history")
		return
	}
	if records == nil {
		records = []model.CallRecord{}
	}
	writeJSON(w, r, http.StatusOK, records)
}

// HandleRunCall handles POST /api/calls?warmup=1. It runs one call to
// completion and returns the final record; events still reach broadcast
// subscribers while it runs.
func (h *Handlers) HandleRunCall(w http.ResponseWriter, r *http.Request) {
	warmup := h.isWarmup(r)

	record, err := h.runner.Run(r.Context(), brokerSink{h.broker}, warmup)
	if err != nil {
		// The record carries the fallback resolution; report it with the
		// degradation noted rather than discarding the call.
		h.logger.Error("call run degraded", "call_id", record.CallID, "error", err)
	}
	writeJSON(w, r, http.StatusOK, record)
}

// HandleCallStream handles GET /api/calls/stream?warmup=1 (SSE). The call
// runs for the lifetime of the connection with every event streamed live.
func (h *Handlers) HandleCallStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Disable the server's WriteTimeout for this long-lived connection.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	sink := &sseSink{w: w, flusher: flusher, broker: h.broker}
	if _, err := h.runner.Run(r.Context(), sink, h.isWarmup(r)); err != nil {
		h.logger.Error("streamed call degraded", "error", err)
	}
}

// HandleSubscribe handles GET /api/events (SSE). Subscribers receive every
// event from every call that runs while they are connected.
func (h *Handlers) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	ch := h.broker.Subscribe()
	defer h.broker.Unsubscribe(ch)

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-ch:
			if _, err := w.Write(event); err != nil {
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

type warmupResponse struct {
	Warmup bool `json:"warmup"`
}

// HandleGetWarmup handles GET /api/warmup.
func (h *Handlers) HandleGetWarmup(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, warmupResponse{Warmup: h.warmup.Load()})
}

// HandleToggleWarmup handles POST /api/warmup. It flips the server-wide
// warmup mode and returns the new value.
func (h *Handlers) HandleToggleWarmup(w http.ResponseWriter, r *http.Request) {
	enabled := !h.warmup.Load()
	h.warmup.Store(enabled)
	h.logger.Info("warmup mode toggled", "warmup", enabled)
	writeJSON(w, r, http.StatusOK, warmupResponse{Warmup: enabled})
}

func (h *Handlers) isWarmup(r *http.Request) bool {
	switch r.URL.Query().Get("warmup") {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return h.warmup.Load()
}

// sseSink streams call events straight to one SSE connection, mirroring
// each event to the broadcast broker.
type sseSink struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	broker  *Broker
}

func (s *sseSink) Send(event model.CallEvent) {
	if s.broker != nil {
		s.broker.Publish(event)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(formatSSE(string(event.Type), payload)); err != nil {
		return
	}
	s.flusher.Flush()
}

// brokerSink delivers events to broadcast subscribers only, for call runs
// without a dedicated stream.
type brokerSink struct {
	broker *Broker
}

func (s brokerSink) Send(event model.CallEvent) {
	if s.broker != nil {
		s.broker.Publish(event)
	}
}
