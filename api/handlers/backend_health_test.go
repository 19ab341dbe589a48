package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/health"
)

func TestBackendHealthHandler_HandleHealth_NilMonitor(t *testing.T) {
	handler := NewBackendHealthHandler(nil, zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.HandleHealth(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp backendHealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, health.Status("unknown"), resp.Status)
}

func TestBackendHealthHandler_HandleHealth_Healthy(t *testing.T) {
	monitor := stubHealthAggregator{
		status:  health.StatusHealthy,
		records: []health.ServiceRecord{{Name: "qdrant", Status: health.StatusHealthy}},
	}
	handler := NewBackendHealthHandler(monitor, zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.HandleHealth(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp backendHealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, health.StatusHealthy, resp.Status)
	require.Len(t, resp.Services, 1)
	assert.Equal(t, "qdrant", resp.Services[0].Name)
}

func TestBackendHealthHandler_HandleHealth_Unhealthy(t *testing.T) {
	monitor := stubHealthAggregator{
		status:  health.StatusUnhealthy,
		records: []health.ServiceRecord{{Name: "neo4j", Status: health.StatusUnhealthy}},
	}
	handler := NewBackendHealthHandler(monitor, zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.HandleHealth(w, r)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
