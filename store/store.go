package store

import (
	"context"
	"time"
)

// Store is the Persistent State Store's interface. Implementations must be
// interchangeable: ConversationState is JSON-encoded under
// "conversation:<id>", QueryMetrics under "metrics:query:<requestId>".
type Store interface {
	// Save writes value under key. ttl <= 0 means no expiry (only honored by
	// implementations that support TTL; the in-process fallback never expires).
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Load reads the value under key. found is false if the key does not
	// exist or has expired.
	Load(ctx context.Context, key string) (value []byte, found bool, err error)

	// Delete removes key. It is not an error if key does not exist.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is currently present.
	Exists(ctx context.Context, key string) (bool, error)

	// GetAllActive returns every key currently present with the given prefix.
	GetAllActive(ctx context.Context, prefix string) ([]string, error)

	// GetTTL returns the remaining time-to-live for key. ok is false if the
	// implementation does not enforce TTL or the key carries none.
	GetTTL(ctx context.Context, key string) (ttl time.Duration, ok bool, err error)

	// AddPendingFeedback records requestID in the "awaiting feedback" index,
	// scored by at (its submission timestamp).
	AddPendingFeedback(ctx context.Context, requestID string, at time.Time) error

	// ListPendingFeedback returns up to limit request ids awaiting feedback,
	// oldest first. limit <= 0 means no limit.
	ListPendingFeedback(ctx context.Context, limit int) ([]string, error)

	// RemovePendingFeedback drops requestID from the awaiting-feedback index.
	RemovePendingFeedback(ctx context.Context, requestID string) error

	// Close releases any resources held by the store.
	Close() error
}

// Key prefixes used by the callers of this package.
const (
	ConversationKeyPrefix   = "conversation:"
	QueryMetricKeyPrefix    = "metrics:query:"
	HealthHistoryKeyPrefix  = "monitoring:health:history:"
	FeedbackPendingIndexKey = "metrics:feedback:pending"
	ProjectKeyPrefix        = "projects:"
)

// ConversationKey builds the key a ConversationState is stored under.
func ConversationKey(id string) string { return ConversationKeyPrefix + id }

// QueryMetricKey builds the key a QueryMetric is stored under.
func QueryMetricKey(requestID string) string { return QueryMetricKeyPrefix + requestID }

// ProjectKey builds the key recording that a project name has been seen in
// traffic, so GET /projects can list it via GetAllActive(ProjectKeyPrefix).
func ProjectKey(project string) string { return ProjectKeyPrefix + project }

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SwitchingStore)(nil)
)
