package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/fallback"
	"github.com/kbgateway/kbgateway/health"
	"github.com/kbgateway/kbgateway/store"
)

type stubProviderHealthSource struct {
	health []fallback.ProviderHealth
}

func (s stubProviderHealthSource) Health() []fallback.ProviderHealth { return s.health }

type stubHealthAggregator struct {
	status  health.Status
	records []health.ServiceRecord
}

func (s stubHealthAggregator) Aggregate() (health.Status, []health.ServiceRecord) {
	return s.status, s.records
}

func TestQueueHandler_HandleStats(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.AddPendingFeedback(ctx, "req-1", time.Now()))
	require.NoError(t, st.AddPendingFeedback(ctx, "req-2", time.Now()))

	embedding := stubProviderHealthSource{health: []fallback.ProviderHealth{{ProviderID: "openai"}}}
	synthesis := stubProviderHealthSource{health: []fallback.ProviderHealth{{ProviderID: "anthropic"}}}
	monitor := stubHealthAggregator{status: health.StatusHealthy, records: []health.ServiceRecord{{Name: "qdrant", Status: health.StatusHealthy}}}

	handler := NewQueueHandler(st, embedding, synthesis, monitor, zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/queue/stats", nil)
	handler.HandleStats(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var stats queueStatsResponse
	require.NoError(t, json.Unmarshal(data, &stats))

	assert.Equal(t, 2, stats.PendingFeedbackCount)
	assert.Len(t, stats.EmbeddingProviders, 1)
	assert.Len(t, stats.SynthesisProviders, 1)
	assert.Equal(t, health.StatusHealthy, stats.BackendStatus)
}

func TestQueueHandler_HandleStats_NilMonitor(t *testing.T) {
	st := store.NewMemoryStore()
	handler := NewQueueHandler(st, nil, nil, nil, zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/queue/stats", nil)
	handler.HandleStats(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQueueHandler_HandleStats_WrongMethod(t *testing.T) {
	st := store.NewMemoryStore()
	handler := NewQueueHandler(st, nil, nil, nil, zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/queue/stats", nil)
	handler.HandleStats(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
