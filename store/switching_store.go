package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SwitchingStore prefers an external KV (e.g. Redis) and falls back to an
// in-process store the first time an operation against the external store
// fails. The switch is one-directional within a process lifetime and logs
// exactly one downgrade warning.
type SwitchingStore struct {
	external Store
	fallback Store
	logger   *zap.Logger

	mu         sync.RWMutex
	downgraded bool
}

// NewSwitchingStore builds a store preferring external, falling back to an
// internal MemoryStore on the first failed operation. If external is nil
// (e.g. Redis was unreachable at construction), the store starts already
// downgraded.
func NewSwitchingStore(external Store, logger *zap.Logger) *SwitchingStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SwitchingStore{external: external, fallback: NewMemoryStore(), logger: logger}
	if external == nil {
		s.downgrade(nil)
	}
	return s
}

func (s *SwitchingStore) downgrade(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.downgraded {
		return
	}
	s.downgraded = true
	if cause != nil {
		s.logger.Warn("persistent state store downgraded to in-process fallback", zap.Error(cause))
	} else {
		s.logger.Warn("persistent state store starting on in-process fallback: external store unavailable")
	}
}

func (s *SwitchingStore) active() Store {
	s.mu.RLock()
	downgraded := s.downgraded
	s.mu.RUnlock()
	if downgraded {
		return s.fallback
	}
	return s.external
}

func (s *SwitchingStore) withFallbackOnError(err error) {
	if err != nil {
		s.downgrade(err)
	}
}

func (s *SwitchingStore) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	active := s.active()
	err := active.Save(ctx, key, value, ttl)
	if active == s.external {
		s.withFallbackOnError(err)
		if err != nil {
			return s.fallback.Save(ctx, key, value, ttl)
		}
	}
	return err
}

func (s *SwitchingStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	active := s.active()
	v, found, err := active.Load(ctx, key)
	if active == s.external && err != nil {
		s.withFallbackOnError(err)
		return s.fallback.Load(ctx, key)
	}
	return v, found, err
}

func (s *SwitchingStore) Delete(ctx context.Context, key string) error {
	active := s.active()
	err := active.Delete(ctx, key)
	if active == s.external {
		s.withFallbackOnError(err)
	}
	return err
}

func (s *SwitchingStore) Exists(ctx context.Context, key string) (bool, error) {
	active := s.active()
	ok, err := active.Exists(ctx, key)
	if active == s.external && err != nil {
		s.withFallbackOnError(err)
		return s.fallback.Exists(ctx, key)
	}
	return ok, err
}

func (s *SwitchingStore) GetAllActive(ctx context.Context, prefix string) ([]string, error) {
	active := s.active()
	keys, err := active.GetAllActive(ctx, prefix)
	if active == s.external && err != nil {
		s.withFallbackOnError(err)
		return s.fallback.GetAllActive(ctx, prefix)
	}
	return keys, err
}

func (s *SwitchingStore) GetTTL(ctx context.Context, key string) (time.Duration, bool, error) {
	active := s.active()
	ttl, ok, err := active.GetTTL(ctx, key)
	if active == s.external && err != nil {
		s.withFallbackOnError(err)
		return s.fallback.GetTTL(ctx, key)
	}
	return ttl, ok, err
}

func (s *SwitchingStore) AddPendingFeedback(ctx context.Context, requestID string, at time.Time) error {
	active := s.active()
	err := active.AddPendingFeedback(ctx, requestID, at)
	if active == s.external {
		s.withFallbackOnError(err)
	}
	return err
}

func (s *SwitchingStore) ListPendingFeedback(ctx context.Context, limit int) ([]string, error) {
	active := s.active()
	ids, err := active.ListPendingFeedback(ctx, limit)
	if active == s.external && err != nil {
		s.withFallbackOnError(err)
		return s.fallback.ListPendingFeedback(ctx, limit)
	}
	return ids, err
}

func (s *SwitchingStore) RemovePendingFeedback(ctx context.Context, requestID string) error {
	active := s.active()
	err := active.RemovePendingFeedback(ctx, requestID)
	if active == s.external {
		s.withFallbackOnError(err)
	}
	return err
}

// Downgraded reports whether the store is currently operating on the
// in-process fallback.
func (s *SwitchingStore) Downgraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.downgraded
}

func (s *SwitchingStore) Close() error {
	var err error
	if s.external != nil {
		err = s.external.Close()
	}
	if fbErr := s.fallback.Close(); fbErr != nil && err == nil {
		err = fbErr
	}
	return err
}
