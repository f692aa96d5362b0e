package storage

import (
	"encoding/json"
	"errors"
	"sync/atomic"
)

// Instrumented wraps a Store and counts operations by outcome. Counters are
// updated atomically so reading them never contends with the wrapped store.
type Instrumented struct {
	delegate Store

	putsCreated    atomic.Uint64
	putsReplaced   atomic.Uint64
	getsFound      atomic.Uint64
	getsMissing    atomic.Uint64
	deletesDone    atomic.Uint64
	deletesMissing atomic.Uint64
}

var _ Store = (*Instrumented)(nil)

func NewInstrumented(delegate Store) *Instrumented {
	return &Instrumented{delegate: delegate}
}

func (s *Instrumented) Put(key string, value json.RawMessage) (existed bool) {
	existed = s.delegate.Put(key, value)
	if existed {
		s.putsReplaced.Add(1)
	} else {
		s.putsCreated.Add(1)
	}
	return existed
}

func (s *Instrumented) Get(key string) (json.RawMessage, error) {
	value, err := s.delegate.Get(key)
	s.count(err, &s.getsFound, &s.getsMissing)
	return value, err
}

func (s *Instrumented) Delete(key string) error {
	err := s.delegate.Delete(key)
	s.count(err, &s.deletesDone, &s.deletesMissing)
	return err
}

func (s *Instrumented) Len() int {
	return s.delegate.Len()
}

func (s *Instrumented) count(err error, hit, miss *atomic.Uint64) {
	switch {
	case err == nil:
		hit.Add(1)
	case errors.Is(err, ErrNotFound):
		miss.Add(1)
	}
}

// Counts is a point-in-time copy of the counters of an Instrumented store.
type Counts struct {
	PutsCreated    uint64
	PutsReplaced   uint64
	GetsFound      uint64
	GetsMissing    uint64
	DeletesDone    uint64
	DeletesMissing uint64
	Entries        int
}

func (s *Instrumented) Snapshot() Counts {
	return Counts{
		PutsCreated:    s.putsCreated.Load(),
		PutsReplaced:   s.putsReplaced.Load(),
		GetsFound:      s.getsFound.Load(),
		GetsMissing:    s.getsMissing.Load(),
		DeletesDone:    s.deletesDone.Load(),
		DeletesMissing: s.deletesMissing.Load(),
		Entries:        s.delegate.Len(),
	}
}
