package predictor

import "sync/atomic"

// Store publishes the current Predictor. Replacing the model is a single Swap.
type Store struct {
	current atomic.Pointer[holder]
}

// holder lets an interface value live behind an atomic pointer.
type holder struct{ p Predictor }

// NewStore creates a Store holding p.
func NewStore(p Predictor) *Store {
	s := &Store{}
	s.current.Store(&holder{p})
	return s
}

// Load returns the current predictor.
func (s *Store) Load() Predictor {
	if h := s.current.Load(); h != nil {
		return h.p
	}
	return nil
}

// Swap installs p and returns the previous predictor.
func (s *Store) Swap(p Predictor) Predictor {
	if h := s.current.Swap(&holder{p}); h != nil {
		return h.p
	}
	return nil
}
