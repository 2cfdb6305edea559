package index

import (
	"sync/atomic"
)

// State is the load state of a Snapshot.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateEmpty
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateEmpty:
		return "empty"
	default:
		return "unloaded"
	}
}

// Snapshot is a read-only view of one index file. Readers get the slice that
// was current when they asked; Reload publishes a new slice by pointer swap
// and never touches one already handed out.
type Snapshot[T any] struct {
	path string
	cur  atomic.Pointer[view[T]]
}

type view[T any] struct {
	records []T
	state   State
	err     error
}

// Open loads path into a new snapshot. A missing or malformed file leaves
// the snapshot Empty; the cause is available from Err.
func Open[T any](path string) *Snapshot[T] {
	s := &Snapshot[T]{path: path}
	records, err := Load[T](path)
	if err != nil {
		s.cur.Store(&view[T]{state: StateEmpty, err: err})
		return s
	}
	s.cur.Store(&view[T]{records: records, state: StateLoaded})
	return s
}

// NewSnapshot wraps records that are already in memory.
func NewSnapshot[T any](records []T) *Snapshot[T] {
	s := &Snapshot[T]{}
	s.cur.Store(&view[T]{records: records, state: StateLoaded})
	return s
}

// Reload re-reads the backing file. When the file cannot be read the
// current records stay in place and the error is returned.
func (s *Snapshot[T]) Reload() error {
	if s.path == "" {
		return nil
	}
	records, err := Load[T](s.path)
	if err != nil {
		return err
	}
	s.cur.Store(&view[T]{records: records, state: StateLoaded})
	return nil
}

// Records returns the current record set. Callers must not modify it.
func (s *Snapshot[T]) Records() []T {
	if v := s.cur.Load(); v != nil {
		return v.records
	}
	return nil
}

func (s *Snapshot[T]) State() State {
	if v := s.cur.Load(); v != nil {
		return v.state
	}
	return StateUnloaded
}

// Err is the load error that left the snapshot Empty, if any.
func (s *Snapshot[T]) Err() error {
	if v := s.cur.Load(); v != nil {
		return v.err
	}
	return nil
}

func (s *Snapshot[T]) Len() int { return len(s.Records()) }

func (s *Snapshot[T]) Path() string { return s.path }
