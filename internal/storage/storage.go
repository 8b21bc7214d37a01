package storage

import (
	"errors"
	"sync"

	"github.com/e3wm/e3wm-api/internal/accessor"
)

var (
	// ErrNilSnapshot indicates an attempt to store a nil accessor.
	ErrNilSnapshot = errors.New("snapshot accessor must not be nil")
)

// Snapshot is one immutable accessor together with its generation number.
// Generations start at 1 and grow by one on every successful Swap.
type Snapshot struct {
	Accessor   *accessor.Accessor
	Generation uint64
}

// Storage provides access to the accessor currently serving queries.
type Storage interface {
	Current() Snapshot
	Swap(a *accessor.Accessor) (Snapshot, error)
}

// MemoryStorage keeps the current snapshot in memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu      sync.RWMutex
	current Snapshot
}

// NewMemoryStorage initialises storage with the first snapshot.
func NewMemoryStorage(initial *accessor.Accessor) (*MemoryStorage, error) {
	if initial == nil {
		return nil, ErrNilSnapshot
	}
	return &MemoryStorage{
		current: Snapshot{Accessor: initial, Generation: 1},
	}, nil
}

// Current returns the snapshot serving queries.
func (s *MemoryStorage) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

// Swap replaces the current accessor and returns the new snapshot.
func (s *MemoryStorage) Swap(a *accessor.Accessor) (Snapshot, error) {
	if a == nil {
		return Snapshot{}, ErrNilSnapshot
	}

	s.mu.Lock()
	s.current = Snapshot{Accessor: a, Generation: s.current.Generation + 1}
	snap := s.current
	s.mu.Unlock()

	return snap, nil
}
