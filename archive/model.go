package archive

import (
	"time"

	"github.com/kbgateway/kbgateway/confidence"
)

// QueryMetricRecord is the gorm model backing the query_metrics table. It
// mirrors confidence.QueryMetric field-for-field; the two are kept as
// separate types because the archive's column names and the KV store's
// JSON field names are allowed to drift independently.
type QueryMetricRecord struct {
	RequestID          string `gorm:"column:request_id;primaryKey;size:64"`
	Timestamp          time.Time `gorm:"column:timestamp;index"`
	QueryHash          string    `gorm:"column:query_hash;size:64;index"`
	SemanticMatchCount int       `gorm:"column:semantic_match_count"`
	StructuralRelCount int       `gorm:"column:structural_rel_count"`
	AvgSemanticScore   float64   `gorm:"column:avg_semantic_score"`
	Confidence         float64   `gorm:"column:confidence"`
	AnswerLength       int       `gorm:"column:answer_length"`
	CitationCount      int       `gorm:"column:citation_count"`
	TotalLatencyMs     int64     `gorm:"column:total_latency_ms"`
	Feedback           string    `gorm:"column:feedback;size:16"`
	FeedbackAt         *time.Time `gorm:"column:feedback_at"`
	FeedbackComment    string     `gorm:"column:feedback_comment;size:1024"`
	ArchivedAt         time.Time  `gorm:"column:archived_at;autoCreateTime"`
}

// TableName pins the gorm table name so it matches the migrations under
// internal/migration/migrations regardless of gorm's pluralization rules.
func (QueryMetricRecord) TableName() string { return "query_metrics" }

func fromQueryMetric(m confidence.QueryMetric) QueryMetricRecord {
	return QueryMetricRecord{
		RequestID:          m.RequestID,
		Timestamp:          m.Timestamp,
		QueryHash:          m.QueryHash,
		SemanticMatchCount: m.SemanticMatchCount,
		StructuralRelCount: m.StructuralRelCount,
		AvgSemanticScore:   m.AvgSemanticScore,
		Confidence:         m.Confidence,
		AnswerLength:       m.AnswerLength,
		CitationCount:      m.CitationCount,
		TotalLatencyMs:     m.TotalLatencyMs,
		Feedback:           string(m.Feedback),
		FeedbackAt:         m.FeedbackAt,
		FeedbackComment:    m.FeedbackComment,
	}
}

func (r QueryMetricRecord) toQueryMetric() confidence.QueryMetric {
	return confidence.QueryMetric{
		RequestID:          r.RequestID,
		Timestamp:          r.Timestamp,
		QueryHash:          r.QueryHash,
		SemanticMatchCount: r.SemanticMatchCount,
		StructuralRelCount: r.StructuralRelCount,
		AvgSemanticScore:   r.AvgSemanticScore,
		Confidence:         r.Confidence,
		AnswerLength:       r.AnswerLength,
		CitationCount:      r.CitationCount,
		TotalLatencyMs:     r.TotalLatencyMs,
		Feedback:           confidence.Feedback(r.Feedback),
		FeedbackAt:         r.FeedbackAt,
		FeedbackComment:    r.FeedbackComment,
	}
}
