package wallet

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store for tests and database-less runs.
type MemoryStore struct {
	mu       sync.RWMutex
	balances map[uuid.UUID]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{balances: make(map[uuid.UUID]int64)}
}

func (s *MemoryStore) ApplyDelta(ctx context.Context, clientID uuid.UUID, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[clientID] += delta
	return nil
}

func (s *MemoryStore) Balance(ctx context.Context, clientID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[clientID], nil
}
