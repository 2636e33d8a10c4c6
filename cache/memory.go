package cache

import (
	"context"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
)

// Memory is an in-process Cache backed by ttlcache. Expired entries are never
// returned; Run evicts them as they expire.
type Memory struct {
	items  *ttlcache.Cache[string, []byte]
	logger *zap.Logger
}

// MemoryOption configures a Memory cache
type MemoryOption func(*Memory)

func WithMemoryLogger(logger *zap.Logger) MemoryOption {
	return func(m *Memory) { m.logger = logger }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		// reads must not extend an entry's lifetime
		items:  ttlcache.New[string, []byte](ttlcache.WithDisableTouchOnHit[string, []byte]()),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.items.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, []byte]) {
		if reason == ttlcache.EvictionReasonExpired {
			m.logger.Debug("Cache entry expired", zap.String("key", item.Key()))
		}
	})
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := m.items.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.items.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.items.Delete(key)
	}
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	for _, key := range m.items.Keys() {
		if strings.HasPrefix(key, prefix) {
			m.items.Delete(key)
		}
	}
	return nil
}

// Len reports the number of stored entries, expired ones not yet evicted included.
func (m *Memory) Len() int {
	return m.items.Len()
}

// DeleteExpired evicts every expired entry now.
func (m *Memory) DeleteExpired() {
	m.items.DeleteExpired()
}

// Run evicts entries as they expire until ctx is cancelled.
func (m *Memory) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.items.Start()
	}()

	<-ctx.Done()
	m.items.Stop()
	<-done
	return nil
}

var _ Cache = (*Memory)(nil)
