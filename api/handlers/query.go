package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/gateway"
	"github.com/kbgateway/kbgateway/store"
	"github.com/kbgateway/kbgateway/types"
)

// projectIndexTTL bounds how long a project stays listed in GET /projects
// after its last query, so stale/renamed projects age out on their own.
const projectIndexTTL = 30 * 24 * time.Hour

// Orchestrator is the HTTP edge's view of the Query Orchestrator (spec
// §4.2), satisfied directly by *orchestrator.Orchestrator.
type Orchestrator interface {
	Handle(ctx context.Context, req gateway.QueryRequest) (*gateway.ConversationResponse, *gateway.QueryResponse, error)
}

// QueryHandler serves POST /query (spec §6).
type QueryHandler struct {
	orchestrator Orchestrator
	store        store.Store
	logger       *zap.Logger
}

// NewQueryHandler creates a QueryHandler over the given Orchestrator.
func NewQueryHandler(orchestrator Orchestrator, st store.Store, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{orchestrator: orchestrator, store: st, logger: logger}
}

// recordProject notes that project was named in a request, so GET /projects
// can surface it later. Best-effort: a failure here never affects the
// caller's response.
func recordProject(ctx context.Context, st store.Store, logger *zap.Logger, project string) {
	if project == "" || st == nil {
		return
	}
	if err := st.Save(ctx, store.ProjectKey(project), []byte(project), projectIndexTTL); err != nil {
		logger.Warn("failed to record project in index", zap.String("project", project), zap.Error(err))
	}
}

// queryRequestBody is the wire shape of POST /query and POST /conversation.
type queryRequestBody struct {
	Query         string                  `json:"query"`
	Project       string                  `json:"project,omitempty"`
	Context       []string                `json:"context,omitempty"`
	Mode          gateway.InteractionMode `json:"mode,omitempty"`
	SynthesisMode gateway.SynthesisMode   `json:"synthesisMode,omitempty"`
}

// HandleQuery handles POST /query: a one-shot query that may still divert
// into a conversation if the text is ambiguous and Mode isn't forced.
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
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

	req := gateway.QueryRequest{
		RequestID:     uuid.NewString(),
		Query:         body.Query,
		Project:       body.Project,
		Context:       body.Context,
		Mode:          body.Mode,
		SynthesisMode: body.SynthesisMode,
		Timestamp:     time.Now(),
	}

	convResp, queryResp, err := h.orchestrator.Handle(r.Context(), req)
	if err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, err.Error(), h.logger)
		return
	}
	recordProject(r.Context(), h.store, h.logger, body.Project)

	if convResp != nil {
		WriteSuccess(w, convResp)
		return
	}
	writeQueryResponse(w, queryResp)
}

// writeQueryResponse maps a QueryResponse's Status onto the HTTP status the
// caller sees: success -> 200, partial -> 207, unavailable -> 503 (spec §4.1).
func writeQueryResponse(w http.ResponseWriter, resp *gateway.QueryResponse) {
	status := http.StatusOK
	if resp != nil {
		switch resp.Status {
		case gateway.StatusPartial:
			status = http.StatusMultiStatus
		case gateway.StatusUnavailable:
			status = http.StatusServiceUnavailable
		}
	}
	WriteJSON(w, status, Response{
		Success:   true,
		Data:      resp,
		Timestamp: time.Now(),
		RequestID: w.Header().Get("X-Request-ID"),
	})
}
