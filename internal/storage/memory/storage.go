package memory

import (
	"context"
	"sync"
)

// Storage is a process-local storage.Backend. Contents are lost on restart.
type Storage struct {
	mu    sync.RWMutex
	items map[string]map[string]string
}

// New creates an empty in-memory backend.
func New() *Storage {
	return &Storage{items: make(map[string]map[string]string)}
}

func (s *Storage) Get(_ context.Context, namespace, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[namespace][key]
	return v, ok, nil
}

func (s *Storage) Set(_ context.Context, namespace, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.items[namespace]
	if !ok {
		ns = make(map[string]string)
		s.items[namespace] = ns
	}
	ns[key] = value
	return nil
}

func (s *Storage) Delete(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items[namespace], key)
	if len(s.items[namespace]) == 0 {
		delete(s.items, namespace)
	}
	return nil
}

func (s *Storage) Ping(context.Context) error {
	return nil
}
