package storage

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStorage keeps objects in process memory. It backs tests and the
// "memory" storage type.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (s *MemoryStorage) Read(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[normalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return bytes.Clone(data), nil
}

func (s *MemoryStorage) Write(_ context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[normalizePath(path)] = bytes.Clone(data)
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := normalizePath(path)
	if _, ok := s.objects[p]; !ok {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	delete(s.objects, p)
	return nil
}

func (s *MemoryStorage) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dir := strings.TrimSuffix(normalizePath(prefix), "/") + "/"
	var paths []string
	for p := range s.objects {
		rest, ok := strings.CutPrefix(p, dir)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *MemoryStorage) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[normalizePath(path)]
	return ok, nil
}

func (s *MemoryStorage) CompareAndSwap(_ context.Context, path string, prev, next []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := normalizePath(path)
	current, ok := s.objects[p]
	if prev == nil {
		if ok {
			return false, nil
		}
	} else if !ok || !bytes.Equal(current, prev) {
		return false, nil
	}
	s.objects[p] = bytes.Clone(next)
	return true, nil
}
