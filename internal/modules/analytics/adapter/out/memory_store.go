package out

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"pagetrack/internal/modules/analytics/domain"
	analyticsout "pagetrack/internal/modules/analytics/port/out"
	apperrors "pagetrack/internal/platform/errors"
)

// MemoryStore keeps the four collections in process memory. It backs the
// recorder when the database cannot be opened; nothing survives a restart.
type MemoryStore struct {
	txMu     sync.Mutex
	sessions *memoryCollection[domain.SessionRecord]
	docs     *memoryCollection[domain.DocumentStats]
	daily    *memoryCollection[domain.DailyReadingSummary]
	global   *memoryCollection[domain.GlobalAnalytics]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: newMemoryCollection(domain.CollectionSessions,
			func(s domain.SessionRecord) string { return s.ID },
			map[string]func(domain.SessionRecord) string{
				domain.IndexDocumentID: func(s domain.SessionRecord) string { return s.DocumentID },
			}),
		docs:   newMemoryCollection(domain.CollectionDocumentStats, func(s domain.DocumentStats) string { return s.DocumentID }, nil),
		daily:  newMemoryCollection(domain.CollectionDailySummaries, func(s domain.DailyReadingSummary) string { return s.Date }, nil),
		global: newMemoryCollection(domain.CollectionGlobal, func(g domain.GlobalAnalytics) string { return g.ID }, nil),
	}
}

// Within applies fn atomically: on error every collection is restored to its
// state before fn ran.
func (s *MemoryStore) Within(ctx context.Context, fn func(context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	restores := []func(){s.sessions.snapshot(), s.docs.snapshot(), s.daily.snapshot(), s.global.snapshot()}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

func (s *MemoryStore) Sessions() analyticsout.Collection[domain.SessionRecord] { return s.sessions }
func (s *MemoryStore) DocumentStats() analyticsout.Collection[domain.DocumentStats] {
	return s.docs
}
func (s *MemoryStore) DailySummaries() analyticsout.Collection[domain.DailyReadingSummary] {
	return s.daily
}
func (s *MemoryStore) Global() analyticsout.Collection[domain.GlobalAnalytics] { return s.global }

type memoryCollection[T any] struct {
	mu      sync.RWMutex
	name    string
	key     func(T) string
	indexes map[string]func(T) string
	rows    map[string][]byte
}

func newMemoryCollection[T any](name string, key func(T) string, indexes map[string]func(T) string) *memoryCollection[T] {
	return &memoryCollection[T]{name: name, key: key, indexes: indexes, rows: map[string][]byte{}}
}

func (c *memoryCollection[T]) snapshot() func() {
	c.mu.RLock()
	saved := make(map[string][]byte, len(c.rows))
	for k, v := range c.rows {
		saved[k] = v
	}
	c.mu.RUnlock()
	return func() {
		c.mu.Lock()
		c.rows = saved
		c.mu.Unlock()
	}
}

func (c *memoryCollection[T]) Get(_ context.Context, key string) (T, error) {
	var zero T
	c.mu.RLock()
	raw, ok := c.rows[key]
	c.mu.RUnlock()
	if !ok {
		return zero, apperrors.ErrNotFound
	}
	var record T
	if err := json.Unmarshal(raw, &record); err != nil {
		return zero, apperrors.ReadFailed(c.name, "decode", err)
	}
	return record, nil
}

func (c *memoryCollection[T]) Put(_ context.Context, record T) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return apperrors.WriteFailed(c.name, "encode", err)
	}
	c.mu.Lock()
	c.rows[c.key(record)] = raw
	c.mu.Unlock()
	return nil
}

func (c *memoryCollection[T]) GetAll(ctx context.Context) ([]T, error) {
	return c.filter(func(T) bool { return true })
}

func (c *memoryCollection[T]) GetAllByIndex(_ context.Context, index, value string) ([]T, error) {
	extract, ok := c.indexes[index]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no index %q", apperrors.ErrInvalidInput, c.name, index)
	}
	return c.filter(func(record T) bool { return extract(record) == value })
}

func (c *memoryCollection[T]) filter(keep func(T) bool) ([]T, error) {
	c.mu.RLock()
	keys := make([]string, 0, len(c.rows))
	for k := range c.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	raws := make([][]byte, 0, len(keys))
	for _, k := range keys {
		raws = append(raws, c.rows[k])
	}
	c.mu.RUnlock()

	out := []T{}
	for _, raw := range raws {
		var record T
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, apperrors.ReadFailed(c.name, "decode", err)
		}
		if keep(record) {
			out = append(out, record)
		}
	}
	return out, nil
}
