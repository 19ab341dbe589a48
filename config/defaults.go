// =============================================================================
// 📦 默认配置
// =============================================================================
// 提供所有配置项的合理默认值；开发环境下即使没有配置文件或环境变量，
// 网关也能以本地默认值启动（生产环境仍需设置 API_KEY，见 Validate）。
// =============================================================================
package config

import "time"

// DefaultConfig returns the gateway's default configuration.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server:      DefaultServerConfig(),
		RateLimit:   DefaultRateLimitConfig(),
		Vector:      DefaultVectorConfig(),
		Graph:       DefaultGraphConfig(),
		KV:          DefaultKVConfig(),
		Embedding:   DefaultEmbeddingConfig(),
		Synthesis:   DefaultSynthesisConfig(),
		Log:         DefaultLogConfig(),
		Telemetry:   DefaultTelemetryConfig(),
		Archive:     DefaultArchiveConfig(),
		Admin:       DefaultAdminConfig(),
	}
}

// DefaultServerConfig returns the HTTP Edge's default settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// DefaultRateLimitConfig matches spec §5's default edge limits.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		WindowMS:    60_000,
		MaxRequests: 100,
	}
}

// DefaultVectorConfig points at a local Qdrant instance.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		URL:        "http://localhost:6333",
		Collection: "kbgateway_chunks",
		Timeout:    10 * time.Second,
		TopK:       10,
	}
}

// DefaultGraphConfig points at a local Neo4j instance.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		URI:      "bolt://localhost:7687",
		Username: "neo4j",
		Database: "neo4j",
		Timeout:  10 * time.Second,
		Limit:    25,
	}
}

// DefaultKVConfig points at a local Redis instance.
func DefaultKVConfig() KVConfig {
	return KVConfig{
		Host: "localhost",
		Port: 6379,
	}
}

// DefaultEmbeddingConfig falls back to the zero-dependency local provider so
// the gateway starts in a degraded but functional mode with no external keys.
func DefaultEmbeddingConfig() ChainConfig {
	return ChainConfig{
		Providers: []ProviderEntryConfig{
			{ID: "local", Kind: "local"},
		},
		Dimensions: 256,
	}
}

// DefaultSynthesisConfig mirrors DefaultEmbeddingConfig's degraded-mode default.
func DefaultSynthesisConfig() ChainConfig {
	return ChainConfig{
		Providers: []ProviderEntryConfig{
			{ID: "local", Kind: "local"},
		},
	}
}

// DefaultLogConfig returns zap's default shape for this service.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultAdminConfig leaves the optional JWT admin surface disabled; the
// shared API key alone guards every route until a secret is configured.
func DefaultAdminConfig() AdminConfig {
	return AdminConfig{JWTEnabled: false}
}

// DefaultTelemetryConfig leaves tracing off until an OTLP endpoint is configured.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "kbgateway",
		SampleRate:   0.1,
	}
}

// DefaultArchiveConfig points the metrics archive at a local Postgres instance.
func DefaultArchiveConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "postgres",
		Host:            "localhost",
		Port:            5432,
		User:            "kbgateway",
		Name:            "kbgateway",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}
