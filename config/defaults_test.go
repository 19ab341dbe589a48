package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, ServerConfig{}, cfg.Server)
	assert.NotEqual(t, RateLimitConfig{}, cfg.RateLimit)
	assert.NotEqual(t, VectorConfig{}, cfg.Vector)
	assert.NotEqual(t, GraphConfig{}, cfg.Graph)
	assert.NotEqual(t, KVConfig{}, cfg.KV)
	assert.NotEqual(t, ChainConfig{}, cfg.Embedding)
	assert.NotEqual(t, ChainConfig{}, cfg.Synthesis)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
	assert.NotEqual(t, DatabaseConfig{}, cfg.Archive)
	assert.Equal(t, "development", cfg.Environment)
}

// --- Individual Default*Config functions ---

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	assert.Equal(t, 60_000, cfg.WindowMS)
	assert.Equal(t, 100, cfg.MaxRequests)
}

func TestDefaultVectorConfig(t *testing.T) {
	cfg := DefaultVectorConfig()
	assert.Equal(t, "http://localhost:6333", cfg.URL)
	assert.Equal(t, "kbgateway_chunks", cfg.Collection)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, 10, cfg.TopK)
}

func TestDefaultGraphConfig(t *testing.T) {
	cfg := DefaultGraphConfig()
	assert.Equal(t, "bolt://localhost:7687", cfg.URI)
	assert.Equal(t, "neo4j", cfg.Username)
	assert.Equal(t, "neo4j", cfg.Database)
	assert.Equal(t, 25, cfg.Limit)
}

func TestDefaultKVConfig(t *testing.T) {
	cfg := DefaultKVConfig()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 6379, cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.Addr())
}

func TestDefaultEmbeddingConfig(t *testing.T) {
	cfg := DefaultEmbeddingConfig()
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, "local", cfg.Providers[0].Kind)
	assert.Equal(t, 256, cfg.Dimensions)
}

func TestDefaultSynthesisConfig(t *testing.T) {
	cfg := DefaultSynthesisConfig()
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, "local", cfg.Providers[0].Kind)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "kbgateway", cfg.ServiceName)
	assert.InDelta(t, 0.1, cfg.SampleRate, 0.001)
}

func TestDefaultArchiveConfig(t *testing.T) {
	cfg := DefaultArchiveConfig()
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "kbgateway", cfg.Name)
	assert.Equal(t, "disable", cfg.SSLMode)
}
