package branches

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alumnihub/alumnihub/internal/shared"
)

// MemoryRepository keeps branches in process.
type MemoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	branches map[int64]Branch
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{branches: make(map[int64]Branch)}
}

var _ Repository = (*MemoryRepository)(nil)

func (m *MemoryRepository) List(_ context.Context, filters shared.ListFilters) ([]Branch, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(filters.Search)
	var out []Branch
	for _, b := range m.branches {
		if needle == "" || strings.Contains(strings.ToLower(b.Name), needle) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if filters.Limit <= 0 {
		filters.Limit = shared.DefaultLimit
	}
	return shared.Paginate(out, filters), len(out), nil
}

func (m *MemoryRepository) Get(_ context.Context, id int64) (Branch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.branches[id]
	if !ok {
		return Branch{}, ErrNotFound
	}
	return b, nil
}

func (m *MemoryRepository) Create(_ context.Context, name string) (Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.branches {
		if b.Name == name {
			return Branch{}, ErrNameTaken
		}
	}
	m.nextID++
	b := Branch{ID: m.nextID, Name: name, CreatedAt: time.Now()}
	m.branches[b.ID] = b
	return b, nil
}

func (m *MemoryRepository) ExistingIDs(_ context.Context, ids []int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []int64
	for id := range m.branches {
		if slices.Contains(ids, id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}
