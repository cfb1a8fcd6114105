package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cloudpulse/telemetry-pipeline/internal/ports"
)

// MockObjectStore is a func-field mock of ports.ObjectStore.
type MockObjectStore struct {
	ListFunc func(ctx context.Context, prefix string) ([]string, error)
	GetFunc  func(ctx context.Context, key string) ([]byte, error)
	PutFunc  func(ctx context.Context, key string, body []byte, contentType string) error
}

func (m *MockObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, prefix)
	}
	return nil, nil
}

func (m *MockObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, ports.ErrObjectNotFound
}

func (m *MockObjectStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, body, contentType)
	}
	return nil
}

// InMemoryObjectStore is a thread-safe in-memory ports.ObjectStore used by
// end-to-end tests. List returns keys in lexicographic order.
type InMemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewInMemoryObjectStore() *InMemoryObjectStore {
	return &InMemoryObjectStore{
		objects: make(map[string][]byte),
	}
}

func (s *InMemoryObjectStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *InMemoryObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	body, ok := s.objects[key]
	if !ok {
		return nil, ports.ErrObjectNotFound
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

func (s *InMemoryObjectStore) Put(_ context.Context, key string, body []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(body))
	copy(stored, body)
	s.objects[key] = stored
	return nil
}

// Keys returns every stored key in lexicographic order.
func (s *InMemoryObjectStore) Keys() []string {
	keys, _ := s.List(context.Background(), "")
	return keys
}

// Len reports the number of stored objects.
func (s *InMemoryObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
