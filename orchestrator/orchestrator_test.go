package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbgateway/kbgateway/conversation"
	"github.com/kbgateway/kbgateway/fallback"
	"github.com/kbgateway/kbgateway/gateway"
	"github.com/kbgateway/kbgateway/llm"
	"github.com/kbgateway/kbgateway/store"
	"github.com/kbgateway/kbgateway/types"
)

type fakeEmbedder struct {
	vec []float64
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) (*fallback.EmbeddingResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fallback.EmbeddingResult{Vector: f.vec, ProviderID: "fake-embed"}, nil
}

type fakeSynth struct {
	content string
	err     error
}

func (f *fakeSynth) Synthesize(ctx context.Context, req *llm.ChatRequest) (*fallback.SynthesisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fallback.SynthesisResult{
		Response: &llm.ChatResponse{
			Choices: []llm.ChatChoice{{Message: types.NewAssistantMessage(f.content)}},
		},
		ProviderID: "fake-synth",
	}, nil
}

type fakeSemantic struct {
	probeErr  error
	searchErr error
	result    gateway.SemanticResult
}

func (f *fakeSemantic) Probe(ctx context.Context) error { return f.probeErr }
func (f *fakeSemantic) Search(ctx context.Context, vector []float64, project string) (gateway.SemanticResult, error) {
	if f.searchErr != nil {
		return gateway.SemanticResult{}, f.searchErr
	}
	return f.result, nil
}

type fakeStructural struct {
	probeErr  error
	searchErr error
	result    gateway.StructuralResult
}

func (f *fakeStructural) Probe(ctx context.Context) error { return f.probeErr }
func (f *fakeStructural) Search(ctx context.Context, query string, project string) (gateway.StructuralResult, error) {
	if f.searchErr != nil {
		return gateway.StructuralResult{}, f.searchErr
	}
	return f.result, nil
}

func sampleSemantic() gateway.SemanticResult {
	return gateway.SemanticResult{
		Summary: "evidence",
		Matches: []gateway.SemanticMatch{
			{Content: "func Foo() {}", Score: 0.9, Source: "foo.go", Kind: gateway.ContentCode},
			{Content: "func Bar() {}", Score: 0.95, Source: "bar.go", Kind: gateway.ContentCode},
		},
	}
}

func sampleStructural() gateway.StructuralResult {
	return gateway.StructuralResult{
		Summary: "relationships",
		Relationships: []gateway.StructuralRelationship{
			{Source: "Bar", Relation: "calls", Target: "Foo", Path: []string{"Bar", "Foo"}},
		},
	}
}

func newTestOrchestrator(embed EmbeddingGenerator, synth Synthesizer, sem SemanticBackend, str StructuralBackend, st store.Store) *Orchestrator {
	return New(embed, synth, sem, str, st, DefaultConfig(), nil)
}

func TestClassifyIntentPrecedence(t *testing.T) {
	assert.Equal(t, gateway.IntentUnknown, classifyIntent(""))
	assert.Equal(t, gateway.IntentRelationship, classifyIntent("how does Foo relate to Bar"))
	assert.Equal(t, gateway.IntentCode, classifyIntent("what function implements this"))
	assert.Equal(t, gateway.IntentExplanation, classifyIntent("explain why this happens"))
	assert.Equal(t, gateway.IntentLocation, classifyIntent("where is the config loaded"))
	assert.Equal(t, gateway.IntentBoth, classifyIntent("tell me about the payment flow"))
}

func TestExecuteQuerySuccessWhenBothBackendsAvailable(t *testing.T) {
	o := newTestOrchestrator(
		&fakeEmbedder{vec: []float64{0.1, 0.2}},
		nil,
		&fakeSemantic{result: sampleSemantic()},
		&fakeStructural{result: sampleStructural()},
		store.NewMemoryStore(),
	)

	resp, err := o.executeQuery(context.Background(), gateway.QueryRequest{RequestID: "r1", Query: "list all callers of Foo"})
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusSuccess, resp.Status)
	assert.True(t, resp.Meta.QdrantQueried)
	assert.True(t, resp.Meta.Neo4jQueried)
	assert.Empty(t, resp.Warnings)
	require.Len(t, resp.Semantic.Matches, 2)
	assert.Equal(t, "bar.go", resp.Semantic.Matches[0].Source) // 0.95 sorts first
	assert.True(t, resp.ValidateConsistency())
}

func TestExecuteQueryPartialWhenOneBackendFails(t *testing.T) {
	o := newTestOrchestrator(
		&fakeEmbedder{vec: []float64{0.1}},
		nil,
		&fakeSemantic{result: sampleSemantic()},
		&fakeStructural{searchErr: errors.New("connection refused")},
		store.NewMemoryStore(),
	)

	resp, err := o.executeQuery(context.Background(), gateway.QueryRequest{RequestID: "r2", Query: "list all callers of Foo"})
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusPartial, resp.Status)
	assert.NotEmpty(t, resp.Warnings)
	assert.True(t, resp.ValidateConsistency())
}

func TestExecuteQueryUnavailableWhenBothBackendsFail(t *testing.T) {
	o := newTestOrchestrator(
		&fakeEmbedder{err: errors.New("embedding chain exhausted")},
		nil,
		&fakeSemantic{probeErr: errors.New("down")},
		&fakeStructural{searchErr: errors.New("down")},
		store.NewMemoryStore(),
	)

	resp, err := o.executeQuery(context.Background(), gateway.QueryRequest{RequestID: "r3", Query: "list all callers of Foo"})
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusUnavailable, resp.Status)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, gateway.FallbackSentence, resp.Warnings[0])
	assert.Empty(t, resp.Semantic.Matches)
	assert.Empty(t, resp.Structural.Relationships)
	assert.True(t, resp.ValidateConsistency())
}

func TestExecuteQuerySynthesisFailureDegradesGracefully(t *testing.T) {
	o := newTestOrchestrator(
		&fakeEmbedder{vec: []float64{0.1}},
		&fakeSynth{err: errors.New("all synthesis providers exhausted")},
		&fakeSemantic{result: sampleSemantic()},
		&fakeStructural{result: sampleStructural()},
		store.NewMemoryStore(),
	)

	resp, err := o.executeQuery(context.Background(), gateway.QueryRequest{
		RequestID: "r4", Query: "explain Foo", SynthesisMode: gateway.SynthesisSynthesized,
	})
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusSuccess, resp.Status)
	assert.Nil(t, resp.Answer)
	assert.Contains(t, resp.Warnings, "synthesis is unavailable; showing raw evidence")
}

func TestExecuteQuerySynthesizesAnswerWithCitations(t *testing.T) {
	o := newTestOrchestrator(
		&fakeEmbedder{vec: []float64{0.1}},
		&fakeSynth{content: "Foo is called by Bar."},
		&fakeSemantic{result: sampleSemantic()},
		&fakeStructural{result: sampleStructural()},
		store.NewMemoryStore(),
	)

	resp, err := o.executeQuery(context.Background(), gateway.QueryRequest{
		RequestID: "r5", Query: "explain Foo", SynthesisMode: gateway.SynthesisSynthesized,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Answer)
	assert.Equal(t, "Foo is called by Bar.", resp.Answer.Markdown)
	assert.NotEmpty(t, resp.Answer.Citations)
	assert.Greater(t, resp.Answer.Confidence, 0.0)
}

func TestHandleDivertsAmbiguousQueryToConversation(t *testing.T) {
	st := store.NewMemoryStore()
	o := newTestOrchestrator(
		&fakeEmbedder{vec: []float64{0.1}},
		nil,
		&fakeSemantic{result: sampleSemantic()},
		&fakeStructural{result: sampleStructural()},
		st,
	)
	ctrl := conversation.New(st, o, nil)
	o.SetController(ctrl)

	convResp, queryResp, err := o.Handle(context.Background(), gateway.QueryRequest{Query: "what does it do"})
	require.NoError(t, err)
	assert.Nil(t, queryResp)
	require.NotNil(t, convResp)
	assert.Equal(t, gateway.PhaseClarifying, convResp.Phase)
}

func TestHandleExecutesOneShotForClearQuery(t *testing.T) {
	st := store.NewMemoryStore()
	o := newTestOrchestrator(
		&fakeEmbedder{vec: []float64{0.1}},
		nil,
		&fakeSemantic{result: sampleSemantic()},
		&fakeStructural{result: sampleStructural()},
		st,
	)
	ctrl := conversation.New(st, o, nil)
	o.SetController(ctrl)

	convResp, queryResp, err := o.Handle(context.Background(), gateway.QueryRequest{Query: "list exported functions in package foo"})
	require.NoError(t, err)
	assert.Nil(t, convResp)
	require.NotNil(t, queryResp)
	assert.Equal(t, gateway.StatusSuccess, queryResp.Status)
}

func TestHandleEmptyQueryErrors(t *testing.T) {
	o := newTestOrchestrator(&fakeEmbedder{}, nil, &fakeSemantic{}, &fakeStructural{}, store.NewMemoryStore())
	_, _, err := o.Handle(context.Background(), gateway.QueryRequest{Query: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSortSemanticMatchesByScoreThenSource(t *testing.T) {
	matches := []gateway.SemanticMatch{
		{Source: "z.go", Score: 0.5},
		{Source: "a.go", Score: 0.9},
		{Source: "b.go", Score: 0.9},
	}
	sortSemanticMatches(matches)
	assert.Equal(t, []string{"a.go", "b.go", "z.go"}, []string{matches[0].Source, matches[1].Source, matches[2].Source})
}

func TestSortStructuralRelationshipsBySourceRelationTarget(t *testing.T) {
	rels := []gateway.StructuralRelationship{
		{Source: "B", Relation: "calls", Target: "A"},
		{Source: "A", Relation: "calls", Target: "C"},
		{Source: "A", Relation: "calls", Target: "B"},
	}
	sortStructuralRelationships(rels)
	assert.Equal(t, "A", rels[0].Source)
	assert.Equal(t, "B", rels[0].Target)
	assert.Equal(t, "A", rels[1].Source)
	assert.Equal(t, "C", rels[1].Target)
	assert.Equal(t, "B", rels[2].Source)
	assert.Equal(t, "A", rels[2].Target)
}
