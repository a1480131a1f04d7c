package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropic(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewAnthropicProvider("test-key", "test-model", 5*time.Second)
	p.baseURL = srv.URL
	return p
}

func TestAnthropicComplete(t *testing.T) {
	p := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "be brief", req.System)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "user", req.Messages[1].Role)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "Hello there!"}},
		})
	})

	got, err := p.Complete(context.Background(), "be brief", []Message{
		{Role: RoleAssistant, Content: "Hi, thanks for calling!"},
		{Role: RoleUser, Content: "My phone broke."},
	}, 100)
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", got)
}

func TestAnthropicRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	p := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "recovered"}},
		})
	})

	got, err := p.Complete(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}}, 50)
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestAnthropicDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	p := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad"}}`))
	})

	_, err := p.Complete(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}}, 50)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestAnthropicEmptyContent(t *testing.T) {
	p := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	})

	_, err := p.Complete(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}}, 50)
	assert.Error(t, err)
}

func TestNoopProvider(t *testing.T) {
	got, err := NoopProvider{}.Complete(context.Background(), "sys", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
