package session

import "sync/atomic"

// Sequence numbers transport events in arrival order.
type Sequence struct {
	n atomic.Uint64
}

func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

func (s *Sequence) Current() uint64 {
	return s.n.Load()
}
