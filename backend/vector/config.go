package vector

import "time"

// Config configures the Qdrant-backed SemanticBackend. Populated from the
// VECTOR_URL / VECTOR_COLLECTION / VECTOR_API_KEY environment variables
// (spec §6).
type Config struct {
	BaseURL    string        `json:"base_url"`
	Collection string        `json:"collection"`
	APIKey     string        `json:"api_key,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty"`
	TopK       int           `json:"top_k,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.TopK == 0 {
		c.TopK = 10
	}
	return c
}
