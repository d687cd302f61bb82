package store

import (
	"maps"
	"slices"
	"sync"
)

// Memory is an in-memory storage implementing Reader, BatchWriter and Visitor.
// It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	assets map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{assets: make(map[string][]byte)}
}

func (m *Memory) ReadAsset(assetPath string) ([]byte, error) {
	p, err := CleanPath(assetPath)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.assets[p]
	if !ok {
		return nil, NotFound(p)
	}
	return slices.Clone(data), nil
}

func (m *Memory) WriteAsset(assetPath string, data []byte) error {
	p, err := CleanPath(assetPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[p] = slices.Clone(data)
	return nil
}

func (m *Memory) WriteAssets(items ...Item) error {
	paths := make([]string, len(items))
	for i, item := range items {
		p, err := CleanPath(item.Path)
		if err != nil {
			return err
		}
		paths[i] = p
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range items {
		m.assets[paths[i]] = slices.Clone(item.Data)
	}
	return nil
}

func (m *Memory) VisitAssets(visitor func(string, []byte) error) error {
	m.mu.RLock()
	paths := slices.Sorted(maps.Keys(m.assets))
	m.mu.RUnlock()

	for _, p := range paths {
		m.mu.RLock()
		data, ok := m.assets[p]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		if err := visitor(p, data); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored assets.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assets)
}
