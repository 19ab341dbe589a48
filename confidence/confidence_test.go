package confidence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbgateway/kbgateway/store"
)

func TestScoreWeightsDefault(t *testing.T) {
	input := ScoreInput{
		SemanticScores:      []float64{0.9, 0.8, 0.7},
		HasStructuralResult: true,
		CitationCount:       3,
	}
	score := Score(input, DefaultWeights())
	assert.InDelta(t, 0.86, score, 0.001)
}

func TestScoreNoEvidenceIsZero(t *testing.T) {
	score := Score(ScoreInput{}, DefaultWeights())
	assert.Equal(t, 0.0, score)
}

func TestScoreCitationFactorCapsAtThree(t *testing.T) {
	a := Score(ScoreInput{CitationCount: 3}, Weights{Citation: 1})
	b := Score(ScoreInput{CitationCount: 10}, Weights{Citation: 1})
	assert.Equal(t, a, b)
}

func TestWeightsNormalizeZeroSumFallsBackToDefault(t *testing.T) {
	w := Weights{}.Normalize()
	assert.Equal(t, DefaultWeights(), w)
}

func TestWeightsNormalizeRescales(t *testing.T) {
	w := Weights{Semantic: 2, Structural: 1, Citation: 1}.Normalize()
	assert.InDelta(t, 0.5, w.Semantic, 0.001)
	assert.InDelta(t, 0.25, w.Structural, 0.001)
	assert.InDelta(t, 0.25, w.Citation, 0.001)
}

func TestConfigClassify(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, TierWarn, cfg.Classify(0.1))
	assert.Equal(t, TierLow, cfg.Classify(0.4))
	assert.Equal(t, TierMedium, cfg.Classify(0.6))
	assert.Equal(t, TierHigh, cfg.Classify(0.9))
}

func saveMetric(t *testing.T, st store.Store, m QueryMetric) {
	t.Helper()
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, st.Save(context.Background(), store.QueryMetricKey(m.RequestID), raw, 0))
}

func TestTunerWritesRecommendationWhenBelowAutoApplyBar(t *testing.T) {
	st := store.NewMemoryStore()
	saveMetric(t, st, QueryMetric{
		RequestID: "r1", Timestamp: time.Now(), AvgSemanticScore: 0.9,
		StructuralRelCount: 1, CitationCount: 3, Feedback: FeedbackUseful,
	})
	saveMetric(t, st, QueryMetric{
		RequestID: "r2", Timestamp: time.Now(), AvgSemanticScore: 0.1,
		StructuralRelCount: 0, CitationCount: 0, Feedback: FeedbackNotUseful,
	})

	tuner := NewTuner(st, nil)
	current := DefaultConfig()
	next, applied, err := tuner.Propose(context.Background(), current)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, current, next)

	raw, found, err := st.Load(context.Background(), RecommendationKey)
	require.NoError(t, err)
	require.True(t, found)
	var rec Recommendation
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, current.Version, rec.CurrentVersion)
	assert.Equal(t, 2, rec.SampleCount)
}

func TestTunerAutoAppliesWithEnoughConsistentSamples(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Now()
	for i := 0; i < 30; i++ {
		saveMetric(t, st, QueryMetric{
			RequestID: "useful-" + string(rune('a'+i)), Timestamp: now,
			AvgSemanticScore: 0.95, StructuralRelCount: 1, CitationCount: 4,
			Feedback: FeedbackUseful,
		})
	}
	for i := 0; i < 15; i++ {
		saveMetric(t, st, QueryMetric{
			RequestID: "bad-" + string(rune('a'+i)), Timestamp: now,
			AvgSemanticScore: 0.05, StructuralRelCount: 0, CitationCount: 0,
			Feedback: FeedbackNotUseful,
		})
	}

	tuner := NewTuner(st, nil)
	current := DefaultConfig()
	next, applied, err := tuner.Propose(context.Background(), current)
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, current.Version+1, next.Version)
	assert.InDelta(t, 1.0, next.Weights.Semantic+next.Weights.Structural+next.Weights.Citation, 0.001)
}

func TestTunerIgnoresMetricsOutsideWindow(t *testing.T) {
	st := store.NewMemoryStore()
	stale := time.Now().Add(-Window - time.Hour)
	saveMetric(t, st, QueryMetric{
		RequestID: "stale", Timestamp: stale, AvgSemanticScore: 0.9,
		CitationCount: 3, Feedback: FeedbackUseful,
	})

	tuner := NewTuner(st, nil)
	current := DefaultConfig()
	_, applied, err := tuner.Propose(context.Background(), current)
	require.NoError(t, err)
	assert.False(t, applied)

	_, found, err := st.Load(context.Background(), RecommendationKey)
	require.NoError(t, err)
	require.True(t, found)
}

func TestTunerIgnoresMetricsWithoutFeedback(t *testing.T) {
	st := store.NewMemoryStore()
	saveMetric(t, st, QueryMetric{RequestID: "nofeedback", Timestamp: time.Now(), AvgSemanticScore: 0.9})

	tuner := NewTuner(st, nil)
	current := DefaultConfig()
	_, applied, err := tuner.Propose(context.Background(), current)
	require.NoError(t, err)
	assert.False(t, applied)
}
