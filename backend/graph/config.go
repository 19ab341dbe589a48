package graph

import "time"

// Config configures the Neo4j-backed StructuralBackend. Populated from the
// GRAPH_URI / GRAPH_USER / GRAPH_PASSWORD environment variables (spec §6).
type Config struct {
	URI      string        `json:"uri"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	Database string        `json:"database,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty"`
	Limit    int           `json:"limit,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.Database == "" {
		c.Database = "neo4j"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Limit == 0 {
		c.Limit = 25
	}
	return c
}
