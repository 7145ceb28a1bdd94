package tag

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Memory is a process-local Registry. Its epochs start over at zero, so each
// instance reports its own scope.
type Memory struct {
	mu     sync.Mutex
	epochs map[string]uint64
	scope  string
}

// NewMemory returns an empty in-process registry.
func NewMemory() *Memory {
	return &Memory{epochs: make(map[string]uint64), scope: "memory:" + ulid.Make().String()}
}

// Scope returns the identifier unique to this registry instance.
func (m *Memory) Scope() string { return m.scope }

// Touch advances the epoch of name.
func (m *Memory) Touch(_ context.Context, name string) {
	m.mu.Lock()
	m.epochs[name]++
	m.mu.Unlock()
}

// Epoch returns the current epoch of name.
func (m *Memory) Epoch(_ context.Context, name string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epochs[name], nil
}

var _ Registry = (*Memory)(nil)
