package storage

import (
	"context"
	"errors"
	"sync"
)

// Fixed logical keys for the serialized documents.
const (
	KeyChatStore       = "chitchat-store"
	KeySettings        = "chitchat-settings"
	KeyUIConfig        = "ui-config"
	KeyUIConfigFetched = "ui-config-timestamp"
)

var ErrKeyNotFound = errors.New("storage: key not found")

// KV is the durable key-value store behind the conversation store, the
// settings store and the UI config cache. Each key holds one serialized
// JSON document.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type memoryKV struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemoryKV returns a process-local KV, used in tests and when no durable
// backend is configured.
func NewMemoryKV() KV {
	return &memoryKV{items: make(map[string][]byte)}
}

func (s *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.items[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

func (s *memoryKV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.items[key] = cp
	return nil
}

func (s *memoryKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *memoryKV) Close() error { return nil }
