package confidence

import "time"

// Feedback is the caller's post-hoc judgment of a response's usefulness.
type Feedback string

const (
	FeedbackUseful    Feedback = "useful"
	FeedbackNotUseful Feedback = "not_useful"
	FeedbackPartial   Feedback = "partial"
)

// QueryMetric is the per-request record the Orchestrator emits after every
// response, and the tuner's sole input. The Orchestrator is the only writer;
// the tuner only ever reads.
type QueryMetric struct {
	RequestID          string     `json:"request_id"`
	Timestamp          time.Time  `json:"timestamp"`
	QueryHash          string     `json:"query_hash"`
	SemanticMatchCount int        `json:"semantic_match_count"`
	StructuralRelCount int        `json:"structural_rel_count"`
	AvgSemanticScore   float64    `json:"avg_semantic_score"`
	Confidence         float64    `json:"confidence"`
	AnswerLength       int        `json:"answer_length"`
	CitationCount      int        `json:"citation_count"`
	TotalLatencyMs     int64      `json:"total_latency_ms"`
	Feedback           Feedback   `json:"feedback,omitempty"`
	FeedbackAt         *time.Time `json:"feedback_at,omitempty"`
	FeedbackComment    string     `json:"feedback_comment,omitempty"`
}

// HasFeedback reports whether a caller has attached feedback to this metric.
func (m QueryMetric) HasFeedback() bool { return m.Feedback != "" }
