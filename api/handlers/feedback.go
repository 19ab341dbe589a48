package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/confidence"
	"github.com/kbgateway/kbgateway/store"
	"github.com/kbgateway/kbgateway/types"
)

// FeedbackHandler serves POST /feedback (spec §6): attaches a caller's
// usefulness judgment to the QueryMetric the Orchestrator recorded for a
// prior request, which the Confidence Metering tuner later reads.
type FeedbackHandler struct {
	store  store.Store
	logger *zap.Logger
}

// NewFeedbackHandler creates a FeedbackHandler over the shared Persistent
// State Store.
func NewFeedbackHandler(st store.Store, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{store: st, logger: logger}
}

type feedbackRequestBody struct {
	RequestID string             `json:"requestId"`
	Feedback  confidence.Feedback `json:"feedback"`
	Comment   string             `json:"comment,omitempty"`
}

var validFeedbackValues = []string{
	string(confidence.FeedbackUseful),
	string(confidence.FeedbackNotUseful),
	string(confidence.FeedbackPartial),
}

// HandleFeedback handles POST /feedback.
func (h *FeedbackHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var body feedbackRequestBody
	if err := DecodeJSONBody(w, r, &body, h.logger); err != nil {
		return
	}
	if body.RequestID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "requestId is required", h.logger)
		return
	}
	if !ValidateEnum(string(body.Feedback), validFeedbackValues) {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "feedback must be one of useful, not_useful, partial", h.logger)
		return
	}

	ctx := r.Context()
	key := store.QueryMetricKey(body.RequestID)
	raw, found, err := h.store.Load(ctx, key)
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrStoreUnavailable, err.Error(), h.logger)
		return
	}
	if !found {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrConversationNotFound, "no query metric found for this requestId (it may have expired)", h.logger)
		return
	}

	var metric confidence.QueryMetric
	if err := json.Unmarshal(raw, &metric); err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, "stored query metric is corrupt", h.logger)
		return
	}

	now := time.Now()
	metric.Feedback = body.Feedback
	metric.FeedbackAt = &now
	metric.FeedbackComment = body.Comment

	updated, err := json.Marshal(metric)
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, err.Error(), h.logger)
		return
	}
	ttl, _, _ := h.store.GetTTL(ctx, key)
	if err := h.store.Save(ctx, key, updated, ttl); err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrStoreUnavailable, err.Error(), h.logger)
		return
	}
	if err := h.store.RemovePendingFeedback(ctx, body.RequestID); err != nil {
		h.logger.Warn("failed to remove pending feedback index entry", zap.String("request_id", body.RequestID), zap.Error(err))
	}

	WriteSuccess(w, map[string]any{"requestId": body.RequestID, "recorded": true})
}
