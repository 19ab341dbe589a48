package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/gateway"
	"github.com/kbgateway/kbgateway/store"
)

// ErrConversationNotFound is returned by Continue/Abort when the
// conversation id is unknown or has expired out of the store.
var ErrConversationNotFound = errors.New("conversation not found or expired")

// Executor runs a fully-formed, enriched query in one-shot mode. The
// Orchestrator implements this; Controller depends only on the interface to
// avoid a cyclic package dependency (Orchestrator diverts into Controller,
// Controller executes back through the Orchestrator).
type Executor interface {
	ExecuteOneShot(ctx context.Context, query string) (*gateway.QueryResponse, error)
}

// Controller implements the Conversation Controller: ambiguity detection,
// clarification generation, and round-bounded state-machine persistence.
type Controller struct {
	store    store.Store
	executor Executor
	logger   *zap.Logger

	mu    sync.RWMutex
	cache map[string]gateway.ConversationState
}

// New creates a Controller backed by st and executor.
func New(st store.Store, executor Executor, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:    st,
		executor: executor,
		logger:   logger,
		cache:    make(map[string]gateway.ConversationState),
	}
}

func conversationKey(id string) string { return store.ConversationKey(id) }

func (c *Controller) persist(ctx context.Context, state gateway.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := c.store.Save(ctx, conversationKey(state.ID), raw, gateway.ConversationTTL); err != nil {
		return err
	}
	c.mu.Lock()
	c.cache[state.ID] = state
	c.mu.Unlock()
	return nil
}

// load always reads from the store; the in-process cache is not consulted.
func (c *Controller) load(ctx context.Context, id string) (gateway.ConversationState, error) {
	raw, found, err := c.store.Load(ctx, conversationKey(id))
	if err != nil {
		return gateway.ConversationState{}, err
	}
	if !found {
		return gateway.ConversationState{}, ErrConversationNotFound
	}
	var state gateway.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return gateway.ConversationState{}, err
	}
	return state, nil
}

// Start creates a new conversation for an ambiguous query and returns its
// first round of clarification questions. Callers (the Orchestrator) are
// expected to have already classified the query as ambiguous before diverting
// here; Start re-classifies defensively.
func (c *Controller) Start(ctx context.Context, query string) (*gateway.ConversationResponse, error) {
	classification := Classify(query)

	state := gateway.ConversationState{
		ID:               uuid.NewString(),
		OriginalQuery:    query,
		Round:            1,
		MaxRounds:        gateway.MaxRounds,
		Phase:            gateway.PhaseAnalyzing,
		CollectedContext: make(map[string]string),
	}

	questions := GenerateQuestions(classification, state.Round, state.CollectedContext)
	if len(questions) == 0 {
		// Nothing to ask even at round 1 (classification resolved to Clear
		// on re-check) — nothing to persist, execute immediately.
		return nil, nil
	}

	if err := c.persist(ctx, state); err != nil {
		return nil, fmt.Errorf("persist conversation: %w", err)
	}

	return &gateway.ConversationResponse{
		ConversationID: state.ID,
		Phase:          state.Phase,
		Round:          state.Round,
		Questions:      questions,
	}, nil
}

// Continue merges answers into the conversation's collected context and
// either returns the next round of clarifications or executes the enriched
// query and returns the terminal response.
func (c *Controller) Continue(ctx context.Context, conversationID string, answers map[string]string) (*gateway.ConversationResponse, *gateway.QueryResponse, error) {
	state, err := c.load(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}

	for k, v := range answers {
		state.CollectedContext[k] = v
	}

	if state.Round >= state.MaxRounds {
		return c.execute(ctx, state)
	}

	state.Round++
	if state.Round > state.MaxRounds {
		state.Round = state.MaxRounds
	}

	classification := Classify(state.OriginalQuery)
	questions := GenerateQuestions(classification, state.Round, state.CollectedContext)
	if len(questions) == 0 {
		return c.execute(ctx, state)
	}

	state.Phase = gateway.PhaseClarifying
	if err := c.persist(ctx, state); err != nil {
		return nil, nil, fmt.Errorf("persist conversation: %w", err)
	}

	return &gateway.ConversationResponse{
		ConversationID: state.ID,
		Phase:          state.Phase,
		Round:          state.Round,
		Questions:      questions,
	}, nil, nil
}

func (c *Controller) execute(ctx context.Context, state gateway.ConversationState) (*gateway.ConversationResponse, *gateway.QueryResponse, error) {
	state.Phase = gateway.PhaseExecuting
	enriched := enrichQuery(state.OriginalQuery, state.CollectedContext)

	resp, err := c.executor.ExecuteOneShot(ctx, enriched)

	state.Phase = gateway.PhaseCompleted
	if delErr := c.store.Delete(ctx, conversationKey(state.ID)); delErr != nil {
		c.logger.Warn("failed to delete completed conversation", zap.String("conversation_id", state.ID), zap.Error(delErr))
	}
	c.mu.Lock()
	delete(c.cache, state.ID)
	c.mu.Unlock()

	if err != nil {
		return nil, nil, fmt.Errorf("execute enriched query: %w", err)
	}
	return nil, resp, nil
}

// Abort ends a conversation immediately without executing. It is not an
// error to abort an already-missing conversation.
func (c *Controller) Abort(ctx context.Context, conversationID string) error {
	if err := c.store.Delete(ctx, conversationKey(conversationID)); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.cache, conversationID)
	c.mu.Unlock()
	return nil
}

// enrichQuery appends Focus/Scope/Goal clauses built from collectedContext
// to the original query text, in that fixed order, skipping any that were
// never collected.
func enrichQuery(original string, collected map[string]string) string {
	var clauses []string
	focus := collected["focus"]
	if focus == "" {
		focus = collected["component"]
	}
	if focus != "" {
		clauses = append(clauses, fmt.Sprintf("Focus: %s", focus))
	}
	if scope, ok := collected["scope"]; ok && scope != "" {
		clauses = append(clauses, fmt.Sprintf("Scope: %s", scope))
	}
	if goal, ok := collected["goal"]; ok && goal != "" {
		clauses = append(clauses, fmt.Sprintf("Goal: %s", goal))
	}
	if len(clauses) == 0 {
		return original
	}
	return original + "\n" + strings.Join(clauses, "\n")
}
