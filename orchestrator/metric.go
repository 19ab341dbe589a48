package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/confidence"
	"github.com/kbgateway/kbgateway/gateway"
	"github.com/kbgateway/kbgateway/store"
)

func queryHash(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}

func scoresOf(matches []gateway.SemanticMatch) []float64 {
	scores := make([]float64, len(matches))
	for i, m := range matches {
		scores[i] = m.Score
	}
	return scores
}

func citationCount(answer *gateway.SynthesizedAnswer) int {
	if answer == nil {
		return 0
	}
	return len(answer.Citations)
}

func answerLength(answer *gateway.SynthesizedAnswer) int {
	if answer == nil {
		return 0
	}
	return len(answer.Markdown)
}

// emitMetric writes a QueryMetric for resp. It runs synchronously before
// executeQuery returns; a failure to persist the metric is only logged and
// never fails the request.
func (o *Orchestrator) emitMetric(ctx context.Context, resp *gateway.QueryResponse, query string, score float64, input confidence.ScoreInput) {
	if o.store == nil {
		return
	}

	metric := confidence.QueryMetric{
		RequestID:          resp.RequestID,
		Timestamp:          time.Now(),
		QueryHash:          queryHash(query),
		SemanticMatchCount: len(resp.Semantic.Matches),
		StructuralRelCount: len(resp.Structural.Relationships),
		AvgSemanticScore:   meanOf(input.SemanticScores),
		Confidence:         score,
		AnswerLength:       answerLength(resp.Answer),
		CitationCount:      citationCount(resp.Answer),
		TotalLatencyMs:     resp.Meta.TotalLatencyMs,
	}

	raw, err := json.Marshal(metric)
	if err != nil {
		o.logger.Warn("failed to marshal query metric", zap.Error(err))
		return
	}
	if err := o.store.Save(ctx, store.QueryMetricKey(metric.RequestID), raw, metricTTL); err != nil {
		o.logger.Warn("failed to persist query metric", zap.Error(err))
		return
	}
	if err := o.store.AddPendingFeedback(ctx, metric.RequestID, metric.Timestamp); err != nil {
		o.logger.Warn("failed to index query metric for pending feedback", zap.Error(err))
	}
}

func meanOf(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// metricTTL is the default QueryMetric retention window (spec §3: "TTL
// configurable (default 7 days)").
const metricTTL = 7 * 24 * time.Hour
