package storage

import (
	"bytes"
	"context"
	"sync"

	"github.com/dmitrijs2005/fhegame/internal/common"
)

// Memory is an in-process Storage. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	txlog   []Mutation
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return Entry{}, nil
	}
	return Entry{Value: bytes.Clone(e.Value), Version: e.Version}, nil
}

func (m *Memory) Put(_ context.Context, mu Mutation) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(mu), nil
}

func (m *Memory) PutIfVersion(_ context.Context, mu Mutation, expected uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.entries[mu.Key].Version != expected {
		return 0, common.ErrVersionConflict
	}
	return m.apply(mu), nil
}

func (m *Memory) apply(mu Mutation) uint64 {
	next := m.entries[mu.Key].Version + 1
	m.entries[mu.Key] = Entry{Value: bytes.Clone(mu.Value), Version: next}
	m.txlog = append(m.txlog, mu)
	return next
}

// Transactions returns a copy of the applied mutations in order.
func (m *Memory) Transactions() []Mutation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Mutation(nil), m.txlog...)
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
