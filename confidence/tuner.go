package confidence

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/store"
)

// RecommendationKey is where a proposed-but-not-applied weight change is
// written for human review.
const RecommendationKey = "confidence:tuner:recommendation"

// Window is the lookback the tuner considers when gathering feedback.
const Window = 7 * 24 * time.Hour

// minUsefulSamples and minOverallConfidence gate auto-apply.
const (
	minUsefulSamples     = 10
	minOverallConfidence = 0.8
	maxWeightDelta       = 0.1
	minWeight            = 0.05
	maxWeight            = 0.9
)

// Recommendation is a proposed weight change, written for human review when
// it does not meet the auto-apply bar.
type Recommendation struct {
	ProposedAt   time.Time `json:"proposed_at"`
	CurrentVersion int     `json:"current_version"`
	Current      Weights   `json:"current"`
	Proposed     Weights   `json:"proposed"`
	Correlations factorCorrelations `json:"correlations"`
	SampleCount  int       `json:"sample_count"`
	OverallConfidence float64 `json:"overall_confidence"`
}

type factorCorrelations struct {
	Semantic   float64 `json:"semantic"`
	Structural float64 `json:"structural"`
	Citation   float64 `json:"citation"`
}

// Tuner consumes QueryMetrics with feedback and proposes weight deltas.
// It reads QueryMetrics but never writes them — the Orchestrator is the only
// writer of that data.
type Tuner struct {
	store  store.Store
	logger *zap.Logger
}

// NewTuner creates a Tuner backed by st.
func NewTuner(st store.Store, logger *zap.Logger) *Tuner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tuner{store: st, logger: logger}
}

func (t *Tuner) loadRecentFeedbackMetrics(ctx context.Context) ([]QueryMetric, error) {
	keys, err := t.store.GetAllActive(ctx, store.QueryMetricKeyPrefix)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-Window)
	metrics := make([]QueryMetric, 0, len(keys))
	for _, key := range keys {
		raw, found, loadErr := t.store.Load(ctx, key)
		if loadErr != nil || !found {
			continue
		}
		var m QueryMetric
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		if !m.HasFeedback() || m.Timestamp.Before(cutoff) {
			continue
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

func meanDiffCorrelation(usefulVals, otherVals []float64) float64 {
	if len(usefulVals) == 0 || len(otherVals) == 0 {
		return 0
	}
	mean := func(vs []float64) float64 {
		var sum float64
		for _, v := range vs {
			sum += v
		}
		return sum / float64(len(vs))
	}
	usefulMean, otherMean := mean(usefulVals), mean(otherVals)
	maxMean := math.Max(usefulMean, otherMean)
	if maxMean == 0 {
		return 0
	}
	diff := (usefulMean - otherMean) / maxMean
	if diff > 1 {
		return 1
	}
	if diff < -1 {
		return -1
	}
	return diff
}

func clampWeight(w float64) float64 {
	if w < minWeight {
		return minWeight
	}
	if w > maxWeight {
		return maxWeight
	}
	return w
}

// Propose analyzes recent feedback and either auto-applies a new Config
// (returned with Applied=true) or writes a Recommendation to the store for
// human review (Applied=false). current is the active configuration.
func (t *Tuner) Propose(ctx context.Context, current Config) (next Config, applied bool, err error) {
	metrics, err := t.loadRecentFeedbackMetrics(ctx)
	if err != nil {
		return current, false, err
	}

	var usefulSemantic, otherSemantic []float64
	var usefulStructural, otherStructural []float64
	var usefulCitation, otherCitation []float64
	usefulCount := 0

	for _, m := range metrics {
		semantic := clip01(m.AvgSemanticScore)
		structural := structuralFactor(m.StructuralRelCount > 0)
		citation := citationFactor(m.CitationCount)

		if m.Feedback == FeedbackUseful {
			usefulCount++
			usefulSemantic = append(usefulSemantic, semantic)
			usefulStructural = append(usefulStructural, structural)
			usefulCitation = append(usefulCitation, citation)
		} else {
			otherSemantic = append(otherSemantic, semantic)
			otherStructural = append(otherStructural, structural)
			otherCitation = append(otherCitation, citation)
		}
	}

	corr := factorCorrelations{
		Semantic:   meanDiffCorrelation(usefulSemantic, otherSemantic),
		Structural: meanDiffCorrelation(usefulStructural, otherStructural),
		Citation:   meanDiffCorrelation(usefulCitation, otherCitation),
	}

	proposed := Weights{
		Semantic:   clampWeight(current.Weights.Semantic + corr.Semantic*maxWeightDelta),
		Structural: clampWeight(current.Weights.Structural + corr.Structural*maxWeightDelta),
		Citation:   clampWeight(current.Weights.Citation + corr.Citation*maxWeightDelta),
	}.Normalize()

	meanAbsCorr := (math.Abs(corr.Semantic) + math.Abs(corr.Structural) + math.Abs(corr.Citation)) / 3
	sampleConfidence := math.Min(float64(usefulCount)/30.0, 1.0)
	overallConfidence := meanAbsCorr * sampleConfidence

	rec := Recommendation{
		ProposedAt:        time.Now(),
		CurrentVersion:    current.Version,
		Current:           current.Weights,
		Proposed:          proposed,
		Correlations:      corr,
		SampleCount:        len(metrics),
		OverallConfidence: overallConfidence,
	}

	if overallConfidence >= minOverallConfidence && usefulCount >= minUsefulSamples {
		next := Config{Version: current.Version + 1, Weights: proposed, Thresholds: current.Thresholds}
		t.logger.Info("confidence weights auto-applied",
			zap.Int("version", next.Version),
			zap.Float64("overall_confidence", overallConfidence),
			zap.Int("useful_samples", usefulCount),
		)
		return next, true, nil
	}

	t.writeRecommendation(ctx, rec)
	return current, false, nil
}

func (t *Tuner) writeRecommendation(ctx context.Context, rec Recommendation) {
	payload, err := json.Marshal(rec)
	if err != nil {
		t.logger.Warn("failed to marshal tuner recommendation", zap.Error(err))
		return
	}
	if err := t.store.Save(ctx, RecommendationKey, payload, Window); err != nil {
		t.logger.Warn("failed to write tuner recommendation", zap.Error(err))
	}
}
