package dashboard

import (
	"sync/atomic"
	"time"
)

// Status describes the state of the displayed model.
type Status string

// Snapshot statuses.
const (
	StatusEmpty Status = "empty"
	StatusReady Status = "ready"
	StatusError Status = "error"
)

// Snapshot is the displayed model plus the state of the cycle that produced it.
type Snapshot struct {
	Generation uint64    `json:"generation"`
	CycleID    string    `json:"cycleId,omitempty"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Retained   bool      `json:"retained"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Model      Model     `json:"model"`
}

// Store is a one-slot holder for the displayed snapshot. Commits only move forward in
// generation, so an older cycle can never overwrite a newer one.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load returns the displayed snapshot, or nil before the first commit.
func (s *Store) Load() *Snapshot {
	return s.current.Load()
}

// Commit replaces the snapshot when next is at least as new as the stored one.
func (s *Store) Commit(next *Snapshot) bool {
	for {
		cur := s.current.Load()
		if cur != nil && cur.Generation > next.Generation {
			return false
		}
		if s.current.CompareAndSwap(cur, next) {
			return true
		}
	}
}
