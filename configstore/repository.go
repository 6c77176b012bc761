package configstore

import (
	"context"
	"sync"
)

// Repository is the persisted key/value table behind a Store. Save inserts
// or updates the row for key.
type Repository interface {
	Find(ctx context.Context, key string) (value string, ok bool, err error)
	Save(ctx context.Context, key, value string) error
}

// MemoryRepository keeps rows in a map. It is safe for concurrent use.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]string
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]string)}
}

func (m *MemoryRepository) Find(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.rows[key]
	return v, ok, nil
}

func (m *MemoryRepository) Save(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[key] = value
	return nil
}
