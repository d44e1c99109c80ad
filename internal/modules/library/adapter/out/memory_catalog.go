package out

import (
	"context"
	"sort"
	"sync"

	"pagetrack/internal/modules/library/domain"
	libraryout "pagetrack/internal/modules/library/port/out"
	apperrors "pagetrack/internal/platform/errors"
)

// MemoryCatalog backs the catalog when the database cannot be opened.
type MemoryCatalog struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

func NewMemoryCatalog() libraryout.CatalogStore {
	return &MemoryCatalog{docs: map[string]domain.Document{}}
}

func (m *MemoryCatalog) Upsert(_ context.Context, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

func (m *MemoryCatalog) FindByID(_ context.Context, id string) (domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return domain.Document{}, apperrors.ErrNotFound
	}
	return doc, nil
}

func (m *MemoryCatalog) FindByPath(_ context.Context, path string) (domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, doc := range m.docs {
		if doc.Path == path {
			return doc, nil
		}
	}
	return domain.Document{}, apperrors.ErrNotFound
}

func (m *MemoryCatalog) List(_ context.Context) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}
