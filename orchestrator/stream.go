package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kbgateway/kbgateway/gateway"
	"github.com/kbgateway/kbgateway/llm"
	"github.com/kbgateway/kbgateway/types"
)

// ErrStreamingUnsupported is returned when the configured Synthesizer does
// not implement StreamingSynthesizer (no synthesis provider configured, or
// a test double standing in for one).
var ErrStreamingUnsupported = fmt.Errorf("streaming synthesis is not supported by the configured synthesizer")

// StreamSynthesis gathers evidence exactly as executeQuery does, then hands
// the assembled prompt to the Synthesizer's streaming path instead of its
// blocking one. It is the entry point behind the supplemental /query/stream
// endpoint. The returned warnings mirror executeQuery's degradation
// narrative (backend unavailability) so the streaming client can render the
// same banners a one-shot response would carry; there is no confidence
// score, since that depends on the answer length and citation count that
// only exist once the stream completes.
func (o *Orchestrator) StreamSynthesis(ctx context.Context, query, project string) (<-chan llm.StreamChunk, string, []string, error) {
	streaming, ok := o.synthesis.(StreamingSynthesizer)
	if o.synthesis == nil || !ok {
		return nil, "", nil, ErrStreamingUnsupported
	}

	embedResult, embedErr := o.embedding.Embed(ctx, query)
	if embedErr != nil {
		o.logger.Warn("embedding chain exhausted; streaming without semantic evidence", zap.Error(embedErr))
	}

	var (
		semProbeErr, strProbeErr   error
		semSearchErr, strSearchErr error
		semResult                  gateway.SemanticResult
		strResult                  gateway.StructuralResult
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
		res, err := o.semantic.Search(callCtx, embedResult.Vector, project)
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
		res, err := o.structural.Search(callCtx, query, project)
		if err != nil {
			strSearchErr = err
			return nil
		}
		strResult = res
		return nil
	})
	_ = g.Wait()

	sortSemanticMatches(semResult.Matches)
	sortStructuralRelationships(strResult.Relationships)

	qdrantQueried := embedErr == nil && semProbeErr == nil && semSearchErr == nil
	neo4jQueried := strProbeErr == nil && strSearchErr == nil

	var warnings []string
	switch {
	case qdrantQueried && neo4jQueried:
	case qdrantQueried || neo4jQueried:
		if !qdrantQueried {
			warnings = append(warnings, "semantic (vector) backend is unavailable")
		}
		if !neo4jQueried {
			warnings = append(warnings, "structural (graph) backend is unavailable")
		}
	default:
		return nil, "", nil, fmt.Errorf("both backends unavailable: %w, %w", semSearchErr, strSearchErr)
	}

	prompt := buildSynthesisPrompt(query, semResult, strResult)
	req := &llm.ChatRequest{
		Model: o.synthesisModel,
		Messages: []llm.Message{
			types.NewSystemMessage(synthesisSystemPrompt),
			types.NewUserMessage(prompt),
		},
		Timeout: o.synthesisTimeout,
	}

	ch, providerID, err := streaming.Stream(ctx, req)
	if err != nil {
		return nil, "", nil, err
	}
	return ch, providerID, warnings, nil
}
