package storage

import (
	"encoding/json"
	"fmt"
	"sync"
)

// InMemoryStore is a Store implementation powered by a map. Its contents live
// as long as the process does.
type InMemoryStore struct {
	mu sync.RWMutex
	m  map[string]json.RawMessage
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		m: make(map[string]json.RawMessage),
	}
}

func (s *InMemoryStore) Put(key string, value json.RawMessage) (existed bool) {
	value = dup(value)
	s.mu.Lock()
	_, existed = s.m[key]
	s.m[key] = value
	s.mu.Unlock()
	return existed
}

func (s *InMemoryStore) Get(key string) (value json.RawMessage, err error) {
	s.mu.RLock()
	value, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	return dup(value), nil
}

func (s *InMemoryStore) Delete(key string) error {
	s.mu.Lock()
	_, ok := s.m[key]
	delete(s.m, key)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	return nil
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
