package webstore

import (
	"context"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Memory implements Driver with thread-safe in-memory storage.
// Keys keep their insertion order; overwriting a key keeps its position.
type Memory struct {
	mu   sync.RWMutex
	data *orderedmap.OrderedMap[string, string]
}

var _ Driver = (*Memory)(nil)

// NewMemory creates an in-memory Driver instance.
func NewMemory() *Memory {
	return &Memory{data: orderedmap.New[string, string]()}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.Set(key, value)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.Delete(key)
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = orderedmap.New[string, string]()
	return nil
}

func (m *Memory) Len(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.Len(), nil
}

// Key returns the key at index in insertion order.
func (m *Memory) Key(ctx context.Context, index int) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index < 0 || index >= m.data.Len() {
		return "", ErrNotFound
	}
	i := 0
	for pair := m.data.Oldest(); pair != nil; pair = pair.Next() {
		if i == index {
			return pair.Key, nil
		}
		i++
	}
	return "", ErrNotFound
}
