package mcp

import (
	"context"

	"github.com/kbgateway/kbgateway/gateway"
	"github.com/kbgateway/kbgateway/orchestrator"
)

// Backend holds fixture tables shared by its semantic and structural views.
// A single Go type cannot implement both orchestrator.SemanticBackend and
// orchestrator.StructuralBackend directly (both declare a method named
// Search with incompatible signatures), so Backend exposes two thin views —
// AsSemantic and AsStructural — instead.
type Backend struct {
	semantic   []SemanticResource
	structural []StructuralResource
}

// New creates a fixture-backed Backend. Nil slices are valid and behave as
// empty fixture tables.
func New(semantic []SemanticResource, structural []StructuralResource) *Backend {
	return &Backend{semantic: semantic, structural: structural}
}

// probe always succeeds: there is no external dependency to be unavailable.
func (b *Backend) probe(ctx context.Context) error { return nil }

func (b *Backend) searchSemantic(ctx context.Context, project string) (gateway.SemanticResult, error) {
	var matches []gateway.SemanticMatch
	for _, r := range b.semantic {
		if project != "" && r.Project != project {
			continue
		}
		matches = append(matches, r.Match)
	}
	return gateway.SemanticResult{Matches: matches}, nil
}

func (b *Backend) searchStructural(ctx context.Context, project string) (gateway.StructuralResult, error) {
	var rels []gateway.StructuralRelationship
	for _, r := range b.structural {
		if project != "" && r.Project != project {
			continue
		}
		rels = append(rels, r.Relationship)
	}
	return gateway.StructuralResult{Relationships: rels}, nil
}

// semanticView adapts Backend to orchestrator.SemanticBackend.
type semanticView struct{ b *Backend }

func (v semanticView) Probe(ctx context.Context) error { return v.b.probe(ctx) }
func (v semanticView) Search(ctx context.Context, vector []float64, project string) (gateway.SemanticResult, error) {
	return v.b.searchSemantic(ctx, project)
}

// structuralView adapts Backend to orchestrator.StructuralBackend.
type structuralView struct{ b *Backend }

func (v structuralView) Probe(ctx context.Context) error { return v.b.probe(ctx) }
func (v structuralView) Search(ctx context.Context, query string, project string) (gateway.StructuralResult, error) {
	return v.b.searchStructural(ctx, project)
}

// AsSemantic returns this Backend's view as an orchestrator.SemanticBackend.
func (b *Backend) AsSemantic() orchestrator.SemanticBackend { return semanticView{b} }

// AsStructural returns this Backend's view as an orchestrator.StructuralBackend.
func (b *Backend) AsStructural() orchestrator.StructuralBackend { return structuralView{b} }
