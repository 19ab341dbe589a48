// =============================================================================
// 📦 配置类型定义
// =============================================================================
// Config 字段对应 §6 EXTERNAL INTERFACES 的环境变量表；每个子结构体同时
// 保留 yaml 标签，允许一个可选的配置文件覆盖默认值，环境变量再覆盖文件。
// =============================================================================
package config

import (
	"fmt"
	"time"
)

// Config is the gateway's complete runtime configuration.
type Config struct {
	// Environment gates strict auth: "production" requires APIKey to be set.
	Environment string `yaml:"environment"`
	// APIKey is the shared secret accepted via Authorization: Bearer or X-API-Key.
	APIKey string `yaml:"api_key"`

	Server    ServerConfig    `yaml:"server"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Vector    VectorConfig    `yaml:"vector"`
	Graph     GraphConfig     `yaml:"graph"`
	KV        KVConfig        `yaml:"kv"`
	Embedding ChainConfig     `yaml:"embedding"`
	Synthesis ChainConfig     `yaml:"synthesis"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Archive   DatabaseConfig  `yaml:"archive"`
	Admin     AdminConfig     `yaml:"admin"`
}

// ServerConfig configures the HTTP Edge (spec §4.1).
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port"`
	MetricsPort     int           `yaml:"metrics_port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RateLimitConfig configures the edge's per-client rate limiter, from
// RATE_LIMIT_WINDOW_MS / RATE_LIMIT_MAX_REQUESTS.
type RateLimitConfig struct {
	WindowMS    int `yaml:"window_ms"`
	MaxRequests int `yaml:"max_requests"`
}

// VectorConfig configures the Qdrant-backed semantic backend, from
// VECTOR_URL / VECTOR_COLLECTION / VECTOR_API_KEY.
type VectorConfig struct {
	URL        string        `yaml:"url"`
	Collection string        `yaml:"collection"`
	APIKey     string        `yaml:"api_key,omitempty"`
	Timeout    time.Duration `yaml:"timeout"`
	TopK       int           `yaml:"top_k"`
}

// GraphConfig configures the Neo4j-backed structural backend, from
// GRAPH_URI / GRAPH_USER / GRAPH_PASSWORD.
type GraphConfig struct {
	URI      string        `yaml:"uri"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
	Limit    int           `yaml:"limit"`
}

// KVConfig configures the Persistent State Store, from KV_HOST / KV_PORT.
type KVConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// Addr returns the host:port form the store's Redis client expects.
func (k KVConfig) Addr() string { return fmt.Sprintf("%s:%d", k.Host, k.Port) }

// RPS converts the window/count pair into the token-bucket rate the edge's
// per-IP limiter wants, from RATE_LIMIT_WINDOW_MS / RATE_LIMIT_MAX_REQUESTS.
func (r RateLimitConfig) RPS() float64 {
	if r.WindowMS <= 0 {
		return float64(r.MaxRequests)
	}
	return float64(r.MaxRequests) / (float64(r.WindowMS) / 1000.0)
}

// Burst allows one full window's worth of requests through before the
// steady-state rate applies, absorbing legitimate request bursts.
func (r RateLimitConfig) Burst() int {
	if r.MaxRequests <= 0 {
		return 1
	}
	return r.MaxRequests
}

// ProviderEntryConfig describes one provider chain entry. Kind is one of
// "openai-compatible", "anthropic-compatible", "local" (fallback.Kind).
type ProviderEntryConfig struct {
	ID      string        `yaml:"id"`
	Name    string        `yaml:"name,omitempty"`
	Kind    string        `yaml:"kind"`
	BaseURL string        `yaml:"base_url,omitempty"`
	Model   string        `yaml:"model,omitempty"`
	APIKey  string        `yaml:"api_key,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ChainConfig is an ordered provider chain (embedding or synthesis), from the
// EMBEDDING_* / SYNTHESIS_* env var family described in doc.go.
type ChainConfig struct {
	Providers  []ProviderEntryConfig `yaml:"providers"`
	Dimensions int                   `yaml:"dimensions,omitempty"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string   `yaml:"level"`
	Format      string   `yaml:"format"`
	OutputPaths []string `yaml:"output_paths,omitempty"`
}

// AdminConfig configures the optional JWT bearer-token alternative for the
// admin-only `/queue/stats` route (additive: the shared API key is still
// accepted and remains the only auth required for every other route).
type AdminConfig struct {
	JWTEnabled bool   `yaml:"jwt_enabled"`
	JWTSecret  string `yaml:"jwt_secret,omitempty"`
	JWTIssuer  string `yaml:"jwt_issuer,omitempty"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	ServiceName  string  `yaml:"service_name"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// DatabaseConfig configures the gorm/Postgres metrics archive (a feature
// supplemented beyond the 7-day KV TTL, not named in the base wire spec).
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN returns this database's connection string for its configured driver.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}
