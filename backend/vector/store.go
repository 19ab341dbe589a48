package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/gateway"
)

// Store implements orchestrator.SemanticBackend against Qdrant's REST API.
// Indexing/ingestion is out of scope (spec Non-goals): Store is read-only.
type Store struct {
	cfg     Config
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// New creates a Qdrant-backed semantic backend.
func New(cfg Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Store{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With(zap.String("component", "vector_store")),
	}
}

func (s *Store) applyHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}
}

func (s *Store) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return err
	}
	s.applyHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vector backend request failed: method=%s path=%s status=%d body=%s", method, path, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Probe checks that the configured collection is reachable and healthy.
func (s *Store) Probe(ctx context.Context) error {
	path := fmt.Sprintf("/collections/%s", url.PathEscape(s.cfg.Collection))
	var resp any
	return s.doJSON(ctx, http.MethodGet, path, nil, &resp)
}

type qdrantResult struct {
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type searchResponse struct {
	Result []qdrantResult `json:"result"`
}

// Search queries Qdrant for the nearest neighbors of vector, filtered by
// project when non-empty, and normalizes each hit's payload into a
// gateway.SemanticMatch regardless of which historical indexer wrote it.
func (s *Store) Search(ctx context.Context, vector []float64, project string) (gateway.SemanticResult, error) {
	if len(vector) == 0 {
		return gateway.SemanticResult{}, fmt.Errorf("vector backend: query embedding is required")
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        s.cfg.TopK,
		"with_payload": true,
		"with_vector":  false,
	}
	if project != "" {
		req["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "project", "match": map[string]any{"value": project}},
			},
		}
	}

	var resp searchResponse
	path := fmt.Sprintf("/collections/%s/points/search", url.PathEscape(s.cfg.Collection))
	if err := s.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return gateway.SemanticResult{}, err
	}

	matches := make([]gateway.SemanticMatch, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, normalizePayload(r.Payload, r.Score))
	}

	summary := ""
	if len(matches) > 0 {
		summary = fmt.Sprintf("%d semantic matches", len(matches))
	}
	return gateway.SemanticResult{Summary: summary, Matches: matches}, nil
}
