// Package draftstore provides DraftStore adapters: an in-memory map for
// tests and single-instance runs, and a sqlite table for drafts that survive
// restarts.
package draftstore

import (
	"context"
	"sync"
)

// Memory keeps draft payloads in a map.
type Memory struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{slots: make(map[string][]byte)}
}

func (m *Memory) Save(_ context.Context, slot string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots[slot] = append([]byte(nil), payload...)
	return nil
}

func (m *Memory) Load(_ context.Context, slot string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.slots[slot]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), p...), nil
}

func (m *Memory) Clear(_ context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.slots, slot)
	return nil
}
