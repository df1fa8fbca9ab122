package storage

import (
	"sync"

	"github.com/samvad-hq/samvad-articles/internal/domain"
)

// memoryStore keeps articles in insertion order.
type memoryStore struct {
	mu     sync.RWMutex
	nextID int64
	order  []int64
	byID   map[int64]domain.Article
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byID: make(map[int64]domain.Article)}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) Create(a domain.Article) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	a.ID = m.nextID
	m.byID[a.ID] = a
	m.order = append(m.order, a.ID)
	return a, nil
}

func (m *memoryStore) Get(id int64) (domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.byID[id]
	if !ok {
		return domain.Article{}, ErrNotFound
	}
	return a, nil
}

func (m *memoryStore) List() ([]domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Article, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out, nil
}

func (m *memoryStore) Update(id int64, a domain.Article) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return domain.Article{}, ErrNotFound
	}
	a.ID = id
	m.byID[id] = a
	return a, nil
}

func (m *memoryStore) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
