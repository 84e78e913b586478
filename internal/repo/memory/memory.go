package memory

import (
	"fmt"
	"sync"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/monitor"
	"github.com/hamed0406/healthwatch/internal/repo"
)

// Store keeps services in configuration order.
type Store struct {
	mu    sync.RWMutex
	order []*monitor.Service
	byUID map[string]*monitor.Service
}

func New() *Store {
	return &Store{byUID: make(map[string]*monitor.Service)}
}

func (m *Store) Add(s *monitor.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUID[s.UID()]; ok {
		return fmt.Errorf("%s: %w", s.UID(), repo.ErrDuplicateUID)
	}
	m.byUID[s.UID()] = s
	m.order = append(m.order, s)
	return nil
}

func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

func (m *Store) List() []*monitor.Service {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*monitor.Service, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Store) Get(id string) (*monitor.Service, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.byUID[id]; ok {
		return s, true
	}
	for _, s := range m.order {
		if s.Name() == id {
			return s, true
		}
	}
	return nil, false
}

func (m *Store) Snapshots() []domain.ServiceSnapshot {
	list := m.List()
	out := make([]domain.ServiceSnapshot, 0, len(list))
	for _, s := range list {
		out = append(out, s.Snapshot())
	}
	return out
}
