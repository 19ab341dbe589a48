// =============================================================================
// 📦 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖。
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量。环境变量名是扁平的字面量
// （VECTOR_URL、GRAPH_URI 等，详见 doc.go），不像原始实现那样通过反射从
// 结构体字段名与前缀拼出来 —— 本网关的变量名是外部契约的一部分，必须
// 逐一显式映射，不能因为字段改名或嵌套调整而漂移。
// =============================================================================
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration from defaults, an optional YAML file, and
// environment variables, in that order of increasing precedence.
type Loader struct {
	configPath string
	validators []func(*Config) error
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// WithConfigPath sets an optional YAML file to load before env overrides.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithValidator registers an additional validation pass run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load builds the final Config: defaults, then YAML file (if any), then
// environment variables, then validation.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// loadFromEnv applies the literal environment variable table from spec §6.
func loadFromEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("NODE_ENV"); ok {
		cfg.Environment = v
	}
	if v, ok := os.LookupEnv("API_KEY"); ok {
		cfg.APIKey = v
	}

	if v, ok := os.LookupEnv("VECTOR_URL"); ok {
		cfg.Vector.URL = v
	}
	if v, ok := os.LookupEnv("VECTOR_COLLECTION"); ok {
		cfg.Vector.Collection = v
	}
	if v, ok := os.LookupEnv("VECTOR_API_KEY"); ok {
		cfg.Vector.APIKey = v
	}

	if v, ok := os.LookupEnv("GRAPH_URI"); ok {
		cfg.Graph.URI = v
	}
	if v, ok := os.LookupEnv("GRAPH_USER"); ok {
		cfg.Graph.Username = v
	}
	if v, ok := os.LookupEnv("GRAPH_PASSWORD"); ok {
		cfg.Graph.Password = v
	}

	if v, ok := os.LookupEnv("KV_HOST"); ok {
		cfg.KV.Host = v
	}
	if v, ok := os.LookupEnv("KV_PORT"); ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KV_PORT: %w", err)
		}
		cfg.KV.Port = p
	}

	if v, ok := os.LookupEnv("EMBEDDING_DIMENSIONS"); ok {
		d, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EMBEDDING_DIMENSIONS: %w", err)
		}
		cfg.Embedding.Dimensions = d
	}
	if providers, ok := os.LookupEnv("EMBEDDING_PROVIDERS"); ok {
		chain, err := loadProviderChainFromEnv("EMBEDDING", providers)
		if err != nil {
			return err
		}
		cfg.Embedding.Providers = chain
	}
	if providers, ok := os.LookupEnv("SYNTHESIS_PROVIDERS"); ok {
		chain, err := loadProviderChainFromEnv("SYNTHESIS", providers)
		if err != nil {
			return err
		}
		cfg.Synthesis.Providers = chain
	}

	if v, ok := os.LookupEnv("RATE_LIMIT_WINDOW_MS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_WINDOW_MS: %w", err)
		}
		cfg.RateLimit.WindowMS = n
	}
	if v, ok := os.LookupEnv("RATE_LIMIT_MAX_REQUESTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS: %w", err)
		}
		cfg.RateLimit.MaxRequests = n
	}

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}

	if v, ok := os.LookupEnv("ADMIN_JWT_SECRET"); ok {
		cfg.Admin.JWTSecret = v
		cfg.Admin.JWTEnabled = v != ""
	}
	if v, ok := os.LookupEnv("ADMIN_JWT_ISSUER"); ok {
		cfg.Admin.JWTIssuer = v
	}

	return nil
}

// loadProviderChainFromEnv parses "<PREFIX>_PROVIDERS=id1,id2" plus, for each
// id, "<PREFIX>_<ID>_KIND/_BASE_URL/_API_KEY/_MODEL/_TIMEOUT_MS" into an
// ordered ProviderEntryConfig chain (spec §6's "Provider chain composition").
func loadProviderChainFromEnv(prefix, providersCSV string) ([]ProviderEntryConfig, error) {
	var entries []ProviderEntryConfig
	for _, id := range strings.Split(providersCSV, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		envKey := envSafe(id)
		entry := ProviderEntryConfig{
			ID:      id,
			Name:    id,
			Kind:    os.Getenv(fmt.Sprintf("%s_%s_KIND", prefix, envKey)),
			BaseURL: os.Getenv(fmt.Sprintf("%s_%s_BASE_URL", prefix, envKey)),
			Model:   os.Getenv(fmt.Sprintf("%s_%s_MODEL", prefix, envKey)),
			APIKey:  os.Getenv(fmt.Sprintf("%s_%s_API_KEY", prefix, envKey)),
		}
		if entry.Kind == "" {
			entry.Kind = "local"
		}
		if v := os.Getenv(fmt.Sprintf("%s_%s_TIMEOUT_MS", prefix, envKey)); v != "" {
			ms, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%s_%s_TIMEOUT_MS: %w", prefix, envKey, err)
			}
			entry.Timeout = time.Duration(ms) * time.Millisecond
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// envSafe uppercases id and replaces anything but letters/digits/underscore
// with underscore, so arbitrary provider ids can be embedded in an env name.
func envSafe(id string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(id) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// MustLoad loads configuration, panicking on failure. Used by cmd/kbgateway
// at startup, where a bad config is a fatal misconfiguration, not a
// recoverable runtime condition.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads configuration from defaults and environment variables
// only, with no YAML file.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks invariants the zero value and env parsing can't enforce
// structurally. Production gates strict auth (spec §6's NODE_ENV row): a
// production environment without an API key is a startup error, not a
// silently-open gateway.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if strings.EqualFold(c.Environment, "production") && c.APIKey == "" {
		errs = append(errs, "API_KEY is required when NODE_ENV=production")
	}
	if c.Vector.URL == "" {
		errs = append(errs, "vector backend URL must be set")
	}
	if len(c.Embedding.Providers) == 0 {
		errs = append(errs, "at least one embedding provider must be configured")
	}
	if len(c.Synthesis.Providers) == 0 {
		errs = append(errs, "at least one synthesis provider must be configured")
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, "EMBEDDING_DIMENSIONS must be positive and match the vector backend")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
