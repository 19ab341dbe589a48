package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbgateway/kbgateway/gateway"
	"github.com/kbgateway/kbgateway/llm"
	"github.com/kbgateway/kbgateway/types"
)

const synthesisSystemPrompt = "You are an engineering support assistant. Answer using only the evidence provided below. Do not invent sources."

const maxCitations = 5

func buildSynthesisPrompt(query string, sem gateway.SemanticResult, str gateway.StructuralResult) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\nSemantic evidence:\n")
	for _, m := range sem.Matches {
		fmt.Fprintf(&b, "- [%s] %s\n", m.Source, m.Content)
	}
	b.WriteString("\nStructural evidence:\n")
	for _, r := range str.Relationships {
		fmt.Fprintf(&b, "- %s %s %s\n", r.Source, r.Relation, r.Target)
	}
	return b.String()
}

// buildCitations derives citations directly from the evidence actually
// included in the response, independent of what the synthesis provider's
// text claims — this guarantees a citation never references a source the
// caller didn't also receive as raw evidence.
func buildCitations(sem gateway.SemanticResult, str gateway.StructuralResult) []gateway.Citation {
	var citations []gateway.Citation
	for _, m := range sem.Matches {
		if len(citations) >= maxCitations {
			break
		}
		citations = append(citations, gateway.Citation{
			Source:    m.Source,
			LineFrom:  m.LineFrom,
			LineTo:    m.LineTo,
			Relevance: m.Score,
			Kind:      m.Kind,
		})
	}
	for _, r := range str.Relationships {
		if len(citations) >= maxCitations {
			break
		}
		citations = append(citations, gateway.Citation{
			Source:    fmt.Sprintf("%s -> %s -> %s", r.Source, r.Relation, r.Target),
			Relevance: 1.0,
			Kind:      gateway.ContentCode,
		})
	}
	return citations
}

// synthesize calls the configured Synthesizer and converts its response
// into a SynthesizedAnswer, with citations rebuilt from the evidence rather
// than parsed out of the model's own text.
func (o *Orchestrator) synthesize(ctx context.Context, query string, sem gateway.SemanticResult, str gateway.StructuralResult) (*gateway.SynthesizedAnswer, error) {
	prompt := buildSynthesisPrompt(query, sem, str)
	req := &llm.ChatRequest{
		Model: o.synthesisModel,
		Messages: []llm.Message{
			types.NewSystemMessage(synthesisSystemPrompt),
			types.NewUserMessage(prompt),
		},
		Timeout: o.synthesisTimeout,
	}

	result, err := o.synthesis.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.Response == nil || len(result.Response.Choices) == 0 {
		return nil, fmt.Errorf("synthesis provider returned no choices")
	}

	return &gateway.SynthesizedAnswer{
		Markdown:  result.Response.Choices[0].Message.Content,
		Citations: buildCitations(sem, str),
	}, nil
}
