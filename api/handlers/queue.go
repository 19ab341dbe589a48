package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/fallback"
	"github.com/kbgateway/kbgateway/health"
	"github.com/kbgateway/kbgateway/store"
	"github.com/kbgateway/kbgateway/types"
)

// pendingFeedbackSampleLimit bounds how many awaiting-feedback request ids
// GET /queue/stats counts per call; the store index can grow unbounded
// between tuner sweeps, and this endpoint only needs an approximate count.
const pendingFeedbackSampleLimit = 1000

// HealthAggregator is the HTTP edge's view of the Health & Recovery Monitor
// (spec §4.5), satisfied directly by *health.Monitor.
type HealthAggregator interface {
	Aggregate() (health.Status, []health.ServiceRecord)
}

// ProviderHealthSource is satisfied by *fallback.EmbeddingChain and
// *fallback.SynthesisChain.
type ProviderHealthSource interface {
	Health() []fallback.ProviderHealth
}

// QueueHandler serves GET /queue/stats: an operator-facing readout of
// provider health and feedback backlog (spec §6). Unlike every other route,
// it accepts either the shared API key or, when configured, an admin JWT —
// that distinction is enforced by middleware, not here.
type QueueHandler struct {
	store      store.Store
	embedding  ProviderHealthSource
	synthesis  ProviderHealthSource
	monitor    HealthAggregator
	logger     *zap.Logger
}

// NewQueueHandler creates a QueueHandler. monitor may be nil if the Health &
// Recovery Monitor was not started (e.g. no backends configured probes).
func NewQueueHandler(st store.Store, embedding, synthesis ProviderHealthSource, monitor HealthAggregator, logger *zap.Logger) *QueueHandler {
	return &QueueHandler{store: st, embedding: embedding, synthesis: synthesis, monitor: monitor, logger: logger}
}

type queueStatsResponse struct {
	PendingFeedbackCount int                      `json:"pendingFeedbackCount"`
	EmbeddingProviders   []fallback.ProviderHealth `json:"embeddingProviders"`
	SynthesisProviders   []fallback.ProviderHealth `json:"synthesisProviders"`
	BackendStatus        health.Status             `json:"backendStatus,omitempty"`
	Backends             []health.ServiceRecord    `json:"backends,omitempty"`
}

// HandleStats handles GET /queue/stats.
func (h *QueueHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}

	resp := h.collect(r.Context())
	WriteSuccess(w, resp)
}

func (h *QueueHandler) collect(ctx context.Context) queueStatsResponse {
	resp := queueStatsResponse{}

	pending, err := h.store.ListPendingFeedback(ctx, pendingFeedbackSampleLimit)
	if err != nil {
		h.logger.Warn("failed to list pending feedback", zap.Error(err))
	} else {
		resp.PendingFeedbackCount = len(pending)
	}

	if h.embedding != nil {
		resp.EmbeddingProviders = h.embedding.Health()
	}
	if h.synthesis != nil {
		resp.SynthesisProviders = h.synthesis.Health()
	}
	if h.monitor != nil {
		resp.BackendStatus, resp.Backends = h.monitor.Aggregate()
	}
	return resp
}
