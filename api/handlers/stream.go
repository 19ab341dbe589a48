package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/llm"
)

// StreamingOrchestrator is the HTTP edge's view of the Query Orchestrator's
// streaming path, satisfied by *orchestrator.Orchestrator.
type StreamingOrchestrator interface {
	StreamSynthesis(ctx context.Context, query, project string) (<-chan llm.StreamChunk, string, []string, error)
}

// streamRequestBody is the wire shape of the first message a client sends
// after the WebSocket upgrade completes.
type streamRequestBody struct {
	Query   string `json:"query"`
	Project string `json:"project,omitempty"`
}

// streamEnvelope is the wire shape of every message StreamHandler writes
// back: either a token delta, a warning batch, or a terminal error.
type streamEnvelope struct {
	Delta    string   `json:"delta,omitempty"`
	Provider string   `json:"provider,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Done     bool     `json:"done,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// StreamHandler serves GET /query/stream (spec's supplemental streaming
// synthesis endpoint): the client upgrades to a WebSocket, sends one JSON
// query, and receives a sequence of token-delta envelopes terminated by a
// done envelope (or an error envelope on failure).
type StreamHandler struct {
	orchestrator StreamingOrchestrator
	logger       *zap.Logger
}

// NewStreamHandler creates a StreamHandler over the given streaming-capable
// Orchestrator view.
func NewStreamHandler(orchestrator StreamingOrchestrator, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{orchestrator: orchestrator, logger: logger}
}

// readTimeout bounds how long the handler waits for the client's initial
// query message before giving up on the connection.
const readTimeout = 10 * time.Second

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	readCtx, cancel := context.WithTimeout(r.Context(), readTimeout)
	_, data, err := conn.Read(readCtx)
	cancel()
	if err != nil {
		conn.Close(websocket.StatusPolicyViolation, "expected a query message")
		return
	}

	var body streamRequestBody
	if err := json.Unmarshal(data, &body); err != nil || body.Query == "" {
		writeStreamEnvelope(r.Context(), conn, streamEnvelope{Error: "query must be a non-empty string"})
		conn.Close(websocket.StatusPolicyViolation, "invalid query")
		return
	}

	ch, providerID, warnings, err := h.orchestrator.StreamSynthesis(r.Context(), body.Query, body.Project)
	if err != nil {
		writeStreamEnvelope(r.Context(), conn, streamEnvelope{Error: err.Error()})
		conn.Close(websocket.StatusInternalError, "synthesis unavailable")
		return
	}

	if len(warnings) > 0 {
		if err := writeStreamEnvelope(r.Context(), conn, streamEnvelope{Provider: providerID, Warnings: warnings}); err != nil {
			return
		}
	}

	for chunk := range ch {
		if chunk.Err != nil {
			writeStreamEnvelope(r.Context(), conn, streamEnvelope{Error: chunk.Err.Message})
			conn.Close(websocket.StatusInternalError, "upstream provider error")
			return
		}
		env := streamEnvelope{Delta: chunk.Delta.Content, Provider: providerID}
		if chunk.FinishReason != "" {
			env.Done = true
		}
		if err := writeStreamEnvelope(r.Context(), conn, env); err != nil {
			return
		}
		if env.Done {
			break
		}
	}

	conn.Close(websocket.StatusNormalClosure, "stream complete")
}

func writeStreamEnvelope(ctx context.Context, conn *websocket.Conn, env streamEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
