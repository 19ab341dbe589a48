package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbgateway/kbgateway/llm"
	"github.com/kbgateway/kbgateway/store"
)

// fakeStreamingSynth satisfies both Synthesizer and StreamingSynthesizer.
type fakeStreamingSynth struct {
	fakeSynth
	chunks     []llm.StreamChunk
	providerID string
	streamErr  error
}

func (f *fakeStreamingSynth) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, string, error) {
	if f.streamErr != nil {
		return nil, "", f.streamErr
	}
	ch := make(chan llm.StreamChunk, len(f.chunks))
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return ch, f.providerID, nil
}

func TestStreamSynthesisUnsupportedWhenSynthesizerLacksStream(t *testing.T) {
	o := newTestOrchestrator(
		&fakeEmbedder{vec: []float64{0.1}},
		&fakeSynth{content: "answer"}, // does not implement StreamingSynthesizer
		&fakeSemantic{result: sampleSemantic()},
		&fakeStructural{result: sampleStructural()},
		store.NewMemoryStore(),
	)

	_, _, _, err := o.StreamSynthesis(context.Background(), "who calls Foo", "")
	assert.ErrorIs(t, err, ErrStreamingUnsupported)
}

func TestStreamSynthesisUnsupportedWhenNoSynthesizerConfigured(t *testing.T) {
	o := newTestOrchestrator(
		&fakeEmbedder{vec: []float64{0.1}},
		nil,
		&fakeSemantic{result: sampleSemantic()},
		&fakeStructural{result: sampleStructural()},
		store.NewMemoryStore(),
	)

	_, _, _, err := o.StreamSynthesis(context.Background(), "who calls Foo", "")
	assert.ErrorIs(t, err, ErrStreamingUnsupported)
}

func TestStreamSynthesisHappyPath(t *testing.T) {
	synth := &fakeStreamingSynth{
		providerID: "anthropic",
		chunks: []llm.StreamChunk{
			{Delta: llm.Message{Content: "Foo is "}},
			{Delta: llm.Message{Content: "called by Bar"}, FinishReason: "stop"},
		},
	}
	o := newTestOrchestrator(
		&fakeEmbedder{vec: []float64{0.1}},
		synth,
		&fakeSemantic{result: sampleSemantic()},
		&fakeStructural{result: sampleStructural()},
		store.NewMemoryStore(),
	)

	ch, providerID, warnings, err := o.StreamSynthesis(context.Background(), "who calls Foo", "demo")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", providerID)
	assert.Empty(t, warnings)

	var got []string
	for chunk := range ch {
		got = append(got, chunk.Delta.Content)
	}
	assert.Equal(t, []string{"Foo is ", "called by Bar"}, got)
}

func TestStreamSynthesisWarnsOnPartialBackends(t *testing.T) {
	synth := &fakeStreamingSynth{providerID: "anthropic", chunks: []llm.StreamChunk{{FinishReason: "stop"}}}
	o := newTestOrchestrator(
		&fakeEmbedder{vec: []float64{0.1}},
		synth,
		&fakeSemantic{result: sampleSemantic()},
		&fakeStructural{searchErr: errors.New("connection refused")},
		store.NewMemoryStore(),
	)

	_, _, warnings, err := o.StreamSynthesis(context.Background(), "who calls Foo", "")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "structural")
}

func TestStreamSynthesisErrorsWhenBothBackendsFail(t *testing.T) {
	synth := &fakeStreamingSynth{providerID: "anthropic"}
	o := newTestOrchestrator(
		&fakeEmbedder{err: errors.New("embedding chain exhausted")},
		synth,
		&fakeSemantic{probeErr: errors.New("down")},
		&fakeStructural{searchErr: errors.New("down")},
		store.NewMemoryStore(),
	)

	_, _, _, err := o.StreamSynthesis(context.Background(), "who calls Foo", "")
	assert.Error(t, err)
}

func TestStreamSynthesisPropagatesStreamError(t *testing.T) {
	streamErr := errors.New("all synthesis providers exhausted")
	synth := &fakeStreamingSynth{streamErr: streamErr}
	o := newTestOrchestrator(
		&fakeEmbedder{vec: []float64{0.1}},
		synth,
		&fakeSemantic{result: sampleSemantic()},
		&fakeStructural{result: sampleStructural()},
		store.NewMemoryStore(),
	)

	_, _, _, err := o.StreamSynthesis(context.Background(), "who calls Foo", "")
	assert.ErrorIs(t, err, streamErr)
}
