package sessions

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps sessions in process memory. Used when neither Redis nor
// MongoDB is configured.
type MemoryRepository struct {
	mu        sync.RWMutex
	byRefresh map[string]Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byRefresh: map[string]Session{}}
}

func (m *MemoryRepository) Create(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byRefresh[s.RefreshToken] = *s
	return nil
}

func (m *MemoryRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byRefresh[refresh]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.byRefresh {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Session{}
	for _, s := range m.byRefresh {
		if s.UserID == userID {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeenAt.After(out[j].LastSeenAt) })
	return out, nil
}

func (m *MemoryRepository) Update(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byRefresh[s.RefreshToken]; ok {
		m.byRefresh[s.RefreshToken] = *s
	}
	return nil
}

func (m *MemoryRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byRefresh, refresh)
	return nil
}
