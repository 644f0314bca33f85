package model

import "sync"

// StateManager tracks fitted state and training dimensions for an estimator.
// Estimators hold it by composition rather than embedding.
type StateManager struct {
	mu        sync.RWMutex
	state     EstimatorState
	nFeatures int
	nSamples  int
}

// NewStateManager creates a StateManager in the NotFitted state.
func NewStateManager() *StateManager {
	return &StateManager{state: NotFitted}
}

// IsFitted reports whether SetFitted has been called since the last Reset.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Fitted
}

// SetDimensions records the training shape. nSamples is 0 for loaded models.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// Dimensions returns the recorded training shape.
func (s *StateManager) Dimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}

// Reset returns to the NotFitted state and clears dimensions.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = NotFitted
	s.nFeatures = 0
	s.nSamples = 0
}
