package refdata

import (
	"sync/atomic"
	"time"
)

// Store provides thread-safe access to the loaded reference tables.
// Tables are never mutated once published; Set swaps in a whole new set.
type Store struct {
	tables atomic.Pointer[Tables]
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current tables, or nil if none have been loaded.
func (s *Store) Get() *Tables {
	return s.tables.Load()
}

// Set atomically replaces the current tables.
func (s *Store) Set(t *Tables) {
	s.tables.Store(t)
}

// AgeSeconds returns how long ago the current tables were loaded.
// Returns -1 if nothing is loaded.
func (s *Store) AgeSeconds() float64 {
	t := s.tables.Load()
	if t == nil {
		return -1
	}
	return time.Since(t.LoadedAt).Seconds()
}
