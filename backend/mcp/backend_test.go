package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbgateway/kbgateway/gateway"
	"github.com/kbgateway/kbgateway/orchestrator"
)

func TestBackendViewsImplementCapabilityInterfaces(t *testing.T) {
	var _ orchestrator.SemanticBackend = semanticView{}
	var _ orchestrator.StructuralBackend = structuralView{}
}

func TestSearchSemanticFiltersByProject(t *testing.T) {
	b := New(
		[]SemanticResource{
			{Project: "alpha", Match: gateway.SemanticMatch{Source: "a.go"}},
			{Project: "beta", Match: gateway.SemanticMatch{Source: "b.go"}},
		},
		nil,
	)
	res, err := b.AsSemantic().Search(context.Background(), nil, "alpha")
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "a.go", res.Matches[0].Source)
}

func TestSearchStructuralReturnsAllWhenProjectEmpty(t *testing.T) {
	b := New(nil, []StructuralResource{
		{Project: "alpha", Relationship: gateway.StructuralRelationship{Source: "A"}},
		{Project: "beta", Relationship: gateway.StructuralRelationship{Source: "B"}},
	})
	res, err := b.AsStructural().Search(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.Len(t, res.Relationships, 2)
}

func TestProbeAlwaysSucceeds(t *testing.T) {
	b := New(nil, nil)
	assert.NoError(t, b.AsSemantic().Probe(context.Background()))
	assert.NoError(t, b.AsStructural().Probe(context.Background()))
}
