package storage

import (
	"errors"
	"sync"
)

// ErrWriteFailed is returned by Memory when writes have been made to fail.
var ErrWriteFailed = errors.New("slot write failed")

// Memory is an in-process slot store with the same contract as Store.
type Memory struct {
	mu        sync.Mutex
	slots     map[string][]byte
	failWrite bool
	writes    int
}

func NewMemory() *Memory {
	return &Memory{slots: map[string][]byte{}}
}

func (m *Memory) Get(name string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.slots[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Put(name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return ErrWriteFailed
	}
	m.slots[name] = append([]byte(nil), value...)
	m.writes++
	return nil
}

func (m *Memory) Delete(names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return ErrWriteFailed
	}
	for _, name := range names {
		delete(m.slots, name)
	}
	return nil
}

// FailWrites makes every later Put and Delete fail until called with false.
func (m *Memory) FailWrites(fail bool) {
	m.mu.Lock()
	m.failWrite = fail
	m.mu.Unlock()
}

// Writes counts successful Put calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
