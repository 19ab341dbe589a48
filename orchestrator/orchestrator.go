package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kbgateway/kbgateway/confidence"
	"github.com/kbgateway/kbgateway/conversation"
	"github.com/kbgateway/kbgateway/gateway"
	"github.com/kbgateway/kbgateway/store"
)

// ErrEmptyQuery is returned for a request whose query text is blank; the
// HTTP edge should translate this to a 400 without invoking backends.
var ErrEmptyQuery = errors.New("query text is empty")

// defaultBackendTimeout bounds a single vector/graph backend call (spec §5:
// "graph 30s, vector 30s").
const defaultBackendTimeout = 30 * time.Second

// defaultProbeTimeout bounds a single health probe issued alongside the
// substantive backend call (spec §5: "health probe 5-10s").
const defaultProbeTimeout = 10 * time.Second

// Config holds the Orchestrator's tunables.
type Config struct {
	BackendTimeout       time.Duration
	ProbeTimeout         time.Duration
	SynthesisModel       string
	SynthesisTimeout     time.Duration
	DefaultSynthesisMode gateway.SynthesisMode
	ConfidenceConfig     confidence.Config
}

// DefaultConfig returns the orchestrator's default tunables.
func DefaultConfig() Config {
	return Config{
		BackendTimeout:       defaultBackendTimeout,
		ProbeTimeout:         defaultProbeTimeout,
		SynthesisTimeout:     60 * time.Second,
		DefaultSynthesisMode: gateway.SynthesisSynthesized,
		ConfidenceConfig:     confidence.DefaultConfig(),
	}
}

// Orchestrator implements the Query Orchestrator (spec §4.2). It depends
// only on capability interfaces for its backends, never on their concrete
// implementations.
type Orchestrator struct {
	embedding  EmbeddingGenerator
	synthesis  Synthesizer // nil means synthesis is not configured
	semantic   SemanticBackend
	structural StructuralBackend
	store      store.Store
	controller *conversation.Controller
	logger     *zap.Logger

	backendTimeout       time.Duration
	probeTimeout         time.Duration
	synthesisModel       string
	synthesisTimeout     time.Duration
	defaultSynthesisMode gateway.SynthesisMode

	confidenceMu  sync.RWMutex
	confidenceCfg confidence.Config
}

// New creates an Orchestrator. synthesis may be nil if no synthesis chain is
// configured. Call SetController once a conversation.Controller referencing
// this Orchestrator as its Executor has been constructed — the two types
// have a necessary circular runtime reference that cannot be resolved at
// construction time.
func New(embedding EmbeddingGenerator, synthesis Synthesizer, semantic SemanticBackend, structural StructuralBackend, st store.Store, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = defaultBackendTimeout
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.DefaultSynthesisMode == "" {
		cfg.DefaultSynthesisMode = gateway.SynthesisSynthesized
	}
	return &Orchestrator{
		embedding:            embedding,
		synthesis:            synthesis,
		semantic:             semantic,
		structural:           structural,
		store:                st,
		logger:               logger,
		backendTimeout:       cfg.BackendTimeout,
		probeTimeout:         cfg.ProbeTimeout,
		synthesisModel:       cfg.SynthesisModel,
		synthesisTimeout:     cfg.SynthesisTimeout,
		defaultSynthesisMode: cfg.DefaultSynthesisMode,
		confidenceCfg:        cfg.ConfidenceConfig,
	}
}

// SetController binds the Conversation Controller this Orchestrator diverts
// ambiguous queries into.
func (o *Orchestrator) SetController(c *conversation.Controller) { o.controller = c }

// ConfidenceConfig returns the Orchestrator's active confidence weights and
// thresholds. Safe for concurrent use with SetConfidenceConfig.
func (o *Orchestrator) ConfidenceConfig() confidence.Config {
	o.confidenceMu.RLock()
	defer o.confidenceMu.RUnlock()
	return o.confidenceCfg
}

// SetConfidenceConfig replaces the active confidence weights and
// thresholds, taking effect on the next scored query. The Confidence
// Metering tuner calls this when it auto-applies a proposal.
func (o *Orchestrator) SetConfidenceConfig(cfg confidence.Config) {
	o.confidenceMu.Lock()
	o.confidenceCfg = cfg
	o.confidenceMu.Unlock()
}

// Handle is the HTTP edge's entry point: it detects ambiguity and either
// diverts into a new conversation or executes the query one-shot.
func (o *Orchestrator) Handle(ctx context.Context, req gateway.QueryRequest) (*gateway.ConversationResponse, *gateway.QueryResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, nil, ErrEmptyQuery
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	classification := conversation.Classify(req.Query)
	mode := req.Mode
	if mode == "" {
		if classification == conversation.Clear {
			mode = gateway.ModeOneShot
		} else {
			mode = gateway.ModeConversational
		}
	}

	if classification != conversation.Clear && mode != gateway.ModeOneShot {
		if o.controller == nil {
			return nil, nil, fmt.Errorf("conversation controller not configured")
		}
		convResp, err := o.controller.Start(ctx, req.Query)
		if err != nil {
			return nil, nil, fmt.Errorf("start conversation: %w", err)
		}
		if convResp != nil {
			return convResp, nil, nil
		}
		// Re-classification inside Start resolved to Clear (or produced no
		// questions): fall through to immediate execution.
	}

	resp, err := o.executeQuery(ctx, req)
	return nil, resp, err
}

// ExecuteOneShot implements conversation.Executor: the Controller calls
// this once a conversation's round budget is exhausted or fully resolved.
func (o *Orchestrator) ExecuteOneShot(ctx context.Context, query string) (*gateway.QueryResponse, error) {
	req := gateway.QueryRequest{
		RequestID:     uuid.NewString(),
		Query:         query,
		Mode:          gateway.ModeOneShot,
		SynthesisMode: o.defaultSynthesisMode,
		Timestamp:     time.Now(),
	}
	return o.executeQuery(ctx, req)
}

// executeQuery runs steps 1, 3-10 of the §4.2 algorithm (step 2, ambiguity
// detection/diversion, is Handle's responsibility — by the time this is
// called the caller has already decided to execute one-shot).
func (o *Orchestrator) executeQuery(ctx context.Context, req gateway.QueryRequest) (*gateway.QueryResponse, error) {
	start := time.Now()
	intent := classifyIntent(req.Query)

	embedResult, embedErr := o.embedding.Embed(ctx, req.Query)
	if embedErr != nil {
		o.logger.Warn("embedding chain exhausted; semantic search will be skipped", zap.Error(embedErr))
	}

	var (
		semProbeErr, strProbeErr   error
		semSearchErr, strSearchErr error
		semResult                 gateway.SemanticResult
		strResult                 gateway.StructuralResult
		semLatency, strLatency    time.Duration
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		probeCtx, cancel := context.WithTimeout(gctx, o.probeTimeout)
		defer cancel()
		semProbeErr = o.semantic.Probe(probeCtx)
		return nil
	})
	g.Go(func() error {
		probeCtx, cancel := context.WithTimeout(gctx, o.probeTimeout)
		defer cancel()
		strProbeErr = o.structural.Probe(probeCtx)
		return nil
	})
	g.Go(func() error {
		if embedErr != nil {
			semSearchErr = embedErr
			return nil
		}
		callCtx, cancel := context.WithTimeout(gctx, o.backendTimeout)
		defer cancel()
		t0 := time.Now()
		res, err := o.semantic.Search(callCtx, embedResult.Vector, req.Project)
		semLatency = time.Since(t0)
		if err != nil {
			semSearchErr = err
			return nil
		}
		semResult = res
		return nil
	})
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, o.backendTimeout)
		defer cancel()
		t0 := time.Now()
		res, err := o.structural.Search(callCtx, req.Query, req.Project)
		strLatency = time.Since(t0)
		if err != nil {
			strSearchErr = err
			return nil
		}
		strResult = res
		return nil
	})
	_ = g.Wait() // every goroutine reports its error via a captured field, never through Wait

	sortSemanticMatches(semResult.Matches)
	sortStructuralRelationships(strResult.Relationships)

	qdrantQueried := embedErr == nil && semProbeErr == nil && semSearchErr == nil
	neo4jQueried := strProbeErr == nil && strSearchErr == nil

	var warnings []string
	var status gateway.Status
	switch {
	case qdrantQueried && neo4jQueried:
		status = gateway.StatusSuccess
	case qdrantQueried || neo4jQueried:
		status = gateway.StatusPartial
		if !qdrantQueried {
			warnings = append(warnings, "semantic (vector) backend is unavailable")
		}
		if !neo4jQueried {
			warnings = append(warnings, "structural (graph) backend is unavailable")
		}
	default:
		status = gateway.StatusUnavailable
		warnings = append(warnings, gateway.FallbackSentence)
		semResult = gateway.SemanticResult{}
		strResult = gateway.StructuralResult{}
	}

	var answer *gateway.SynthesizedAnswer
	if req.SynthesisMode == gateway.SynthesisSynthesized && o.synthesis != nil && status != gateway.StatusUnavailable {
		a, err := o.synthesize(ctx, req.Query, semResult, strResult)
		if err != nil {
			o.logger.Warn("synthesis chain exhausted; returning raw evidence", zap.Error(err))
			warnings = append(warnings, "synthesis is unavailable; showing raw evidence")
		} else {
			answer = a
		}
	}

	scoreInput := confidence.ScoreInput{
		SemanticScores:      scoresOf(semResult.Matches),
		HasStructuralResult: len(strResult.Relationships) > 0,
		CitationCount:       citationCount(answer),
	}
	confidenceCfg := o.ConfidenceConfig()
	score := confidence.Score(scoreInput, confidenceCfg.Weights)
	if answer != nil {
		answer.Confidence = score
	}
	if status != gateway.StatusUnavailable && confidenceCfg.Classify(score) == confidence.TierWarn {
		warnings = append(warnings, "confidence in this response is low")
	}

	resp := &gateway.QueryResponse{
		RequestID:  req.RequestID,
		Status:     status,
		Intent:     intent,
		Semantic:   semResult,
		Structural: strResult,
		Answer:     answer,
		Meta: gateway.ResponseMeta{
			QdrantQueried:   qdrantQueried,
			QdrantLatencyMs: semLatency.Milliseconds(),
			Neo4jQueried:    neo4jQueried,
			Neo4jLatencyMs:  strLatency.Milliseconds(),
			TotalLatencyMs:  time.Since(start).Milliseconds(),
			CacheHit:        false,
		},
		Warnings: warnings,
	}

	o.emitMetric(ctx, resp, req.Query, score, scoreInput)

	return resp, nil
}
