package storage

import (
	"context"
	"sync"

	"github.com/keshon/connect-router/internal/policy"
)

// Memory is a process-local backend for tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	records map[uint64]policy.Record
	inserts int
}

func NewMemory() *Memory {
	return &Memory{records: make(map[uint64]policy.Record)}
}

func (m *Memory) Get(_ context.Context, bucket uint64) (policy.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[bucket]
	return rec.Clone(), ok, nil
}

func (m *Memory) InsertIfAbsent(_ context.Context, rec policy.Record) (policy.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[rec.ID]; ok {
		return existing.Clone(), nil
	}
	m.records[rec.ID] = rec.Clone()
	m.inserts++
	return rec.Clone(), nil
}

func (m *Memory) Put(_ context.Context, rec policy.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec.Clone()
	return nil
}

func (m *Memory) Close() error { return nil }

// Inserts returns how many records InsertIfAbsent actually stored.
func (m *Memory) Inserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserts
}
