package catalog

import "sync/atomic"

// Store publishes the current Catalog. Readers take a snapshot with Load;
// a reload replaces the whole Catalog with Swap.
type Store struct {
	current atomic.Pointer[Catalog]
}

// NewStore creates a Store holding c.
func NewStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

// Load returns the current catalog.
func (s *Store) Load() *Catalog {
	return s.current.Load()
}

// Swap installs c and returns the previous catalog.
func (s *Store) Swap(c *Catalog) *Catalog {
	return s.current.Swap(c)
}
