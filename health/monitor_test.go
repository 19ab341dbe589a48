package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbgateway/kbgateway/store"
)

func TestMonitorAggregateAllHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New([]ServiceConfig{{Name: "vector", URL: srv.URL}}, DefaultConfig(), store.NewMemoryStore(), nil)
	m.pollAll(context.Background())

	overall, records := m.Aggregate()
	assert.Equal(t, StatusHealthy, overall)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].ConsecutiveFailed)
}

func TestMonitorAggregateDegradedOn207(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
	}))
	defer srv.Close()

	m := New([]ServiceConfig{{Name: "graph", URL: srv.URL}}, DefaultConfig(), store.NewMemoryStore(), nil)
	m.pollAll(context.Background())

	overall, _ := m.Aggregate()
	assert.Equal(t, StatusDegraded, overall)
	assert.Equal(t, http.StatusMultiStatus, HTTPStatusFor(overall))
}

func TestMonitorAggregateUnhealthyOnConnectionFailure(t *testing.T) {
	m := New([]ServiceConfig{{Name: "vector", URL: "http://127.0.0.1:1"}}, Config{Interval: time.Minute, ProbeTimeout: 200 * time.Millisecond}, store.NewMemoryStore(), nil)
	m.pollAll(context.Background())

	overall, records := m.Aggregate()
	assert.Equal(t, StatusUnhealthy, overall)
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusFor(overall))
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].ConsecutiveFailed)
	assert.NotEmpty(t, records[0].LastError)
}

func TestMonitorOnAlertFiresAtThreeConsecutiveFailures(t *testing.T) {
	var alerted []ServiceRecord
	cfg := Config{
		Interval:     time.Minute,
		ProbeTimeout: 200 * time.Millisecond,
		OnAlert:      func(services []ServiceRecord) { alerted = services },
	}
	m := New([]ServiceConfig{{Name: "vector", URL: "http://127.0.0.1:1"}}, cfg, store.NewMemoryStore(), nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		m.pollAll(ctx)
	}

	require.Len(t, alerted, 1)
	assert.Equal(t, 3, alerted[0].ConsecutiveFailed)
}

func TestMonitorCustomProbe(t *testing.T) {
	calls := 0
	probe := func(ctx context.Context) ProbeResult {
		calls++
		return ProbeResult{Status: StatusHealthy, Latency: time.Millisecond}
	}
	m := New([]ServiceConfig{{Name: "custom", Probe: probe}}, DefaultConfig(), store.NewMemoryStore(), nil)
	m.pollAll(context.Background())

	assert.Equal(t, 1, calls)
	overall, _ := m.Aggregate()
	assert.Equal(t, StatusHealthy, overall)
}

func TestMonitorLatencyThresholdDegradesHealthy(t *testing.T) {
	probe := func(ctx context.Context) ProbeResult {
		return ProbeResult{Status: StatusHealthy, Latency: 500 * time.Millisecond}
	}
	m := New([]ServiceConfig{{Name: "slow", Probe: probe, LatencyCriticalThreshold: 100 * time.Millisecond}}, DefaultConfig(), store.NewMemoryStore(), nil)
	m.pollAll(context.Background())

	overall, _ := m.Aggregate()
	assert.Equal(t, StatusDegraded, overall)
}

func TestMonitorWritesHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	m := New([]ServiceConfig{{Name: "vector", URL: srv.URL}}, DefaultConfig(), st, nil)
	m.pollAll(context.Background())

	keys, err := st.GetAllActive(context.Background(), store.HealthHistoryKeyPrefix)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}
