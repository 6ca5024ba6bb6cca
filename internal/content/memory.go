package content

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps records in process.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]Record
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[int64]Record)}
}

var _ Repository = (*MemoryRepository)(nil)

func (m *MemoryRepository) Create(_ context.Context, r Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Now()
	r.ID = m.nextID
	r.Visibility.Targets = slices.Clone(r.Visibility.Targets)
	r.CreatedAt, r.UpdatedAt = now, now
	m.records[r.ID] = r
	return r, nil
}

func (m *MemoryRepository) Get(_ context.Context, id int64) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (m *MemoryRepository) List(_ context.Context, kind Kind) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		if kind == "" || r.Kind == kind {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// Len reports how many records are stored.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
