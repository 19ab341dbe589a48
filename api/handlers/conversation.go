package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/conversation"
	"github.com/kbgateway/kbgateway/gateway"
	"github.com/kbgateway/kbgateway/store"
	"github.com/kbgateway/kbgateway/types"
)

// ConversationController is the HTTP edge's view of the Conversation
// Controller (spec §4.3), satisfied directly by *conversation.Controller.
type ConversationController interface {
	Start(ctx context.Context, query string) (*gateway.ConversationResponse, error)
	Continue(ctx context.Context, conversationID string, answers map[string]string) (*gateway.ConversationResponse, *gateway.QueryResponse, error)
	Abort(ctx context.Context, conversationID string) error
}

// ConversationHandler serves /conversation and /conversation/{id}/... (spec §6).
type ConversationHandler struct {
	controller ConversationController
	store      store.Store
	logger     *zap.Logger
}

// NewConversationHandler creates a ConversationHandler over the given Controller.
func NewConversationHandler(controller ConversationController, st store.Store, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{controller: controller, store: st, logger: logger}
}

// HandleStart handles POST /conversation: always opens a new conversation,
// regardless of whether the query looks ambiguous (unlike /query, which
// only diverts on ambiguity).
func (h *ConversationHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var body queryRequestBody
	if err := DecodeJSONBody(w, r, &body, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "query must not be empty", h.logger)
		return
	}

	resp, err := h.controller.Start(r.Context(), body.Query)
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, err.Error(), h.logger)
		return
	}
	recordProject(r.Context(), h.store, h.logger, body.Project)
	WriteSuccess(w, resp)
}

// continueRequestBody is POST /conversation/{id}/continue's body: a map
// from ClarificationQuestion.ID to the caller's answer.
type continueRequestBody struct {
	Answers map[string]string `json:"answers"`
}

// HandleContinue handles POST /conversation/{id}/continue.
func (h *ConversationHandler) HandleContinue(w http.ResponseWriter, r *http.Request, conversationID string) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if conversationID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "conversation id is required", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var body continueRequestBody
	if err := DecodeJSONBody(w, r, &body, h.logger); err != nil {
		return
	}

	convResp, queryResp, err := h.controller.Continue(r.Context(), conversationID, body.Answers)
	if err != nil {
		h.writeControllerError(w, err)
		return
	}
	if convResp != nil {
		WriteSuccess(w, convResp)
		return
	}
	writeQueryResponse(w, queryResp)
}

// HandleAbort handles DELETE /conversation/{id}.
func (h *ConversationHandler) HandleAbort(w http.ResponseWriter, r *http.Request, conversationID string) {
	if r.Method != http.MethodDelete {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if conversationID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "conversation id is required", h.logger)
		return
	}

	if err := h.controller.Abort(r.Context(), conversationID); err != nil {
		h.writeControllerError(w, err)
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) writeControllerError(w http.ResponseWriter, err error) {
	if errors.Is(err, conversation.ErrConversationNotFound) {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrConversationNotFound, err.Error(), h.logger)
		return
	}
	WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, err.Error(), h.logger)
}
