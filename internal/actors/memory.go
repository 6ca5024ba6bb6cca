package actors

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps actors in process.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	actors map[int64]Actor
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{actors: make(map[int64]Actor)}
}

var _ RepositoryPort = (*MemoryRepository)(nil)

func (m *MemoryRepository) ListActors(context.Context) ([]Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Actor, 0, len(m.actors))
	for _, a := range m.actors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) GetActor(_ context.Context, id int64) (Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actors[id]
	if !ok {
		return Actor{}, ErrNotFound
	}
	return a, nil
}

func (m *MemoryRepository) CreateActor(_ context.Context, displayName string, branchID *int64) (Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a := Actor{ID: m.nextID, DisplayName: displayName, BranchID: branchID, CreatedAt: time.Now()}
	m.actors[a.ID] = a
	return a, nil
}
