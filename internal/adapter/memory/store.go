// Package memory provides a process-local key-value store. Nothing survives a
// restart; it backs tests and STORE_BACKEND=memory.
package memory

import (
	"context"
	"sync"
)

// Store is a map guarded by a mutex.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string]string)}
}

// Get returns the value for key, or "" when it is missing.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key], nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
