// Package model provides core abstractions shared by the estimators that make
// up a trained yield pipeline.
//
// This package defines:
//
//   - BaseEstimator and StateManager: fitted-state tracking so that an
//     estimator is never used before its parameters are fitted or loaded
//   - Transformer / Regressor: the matrix contracts chained by sklearn/pipeline
//   - scikit-learn import: the JSON envelope used for every exported artifact
//
// Example usage:
//
//	type MyTransformer struct {
//		model.BaseEstimator
//		// transformer-specific fields
//	}
//
//	func (m *MyTransformer) load(params Params) error {
//		// copy fitted parameters
//		m.SetFitted()
//		return nil
//	}
package model

import (
	"gonum.org/v1/gonum/mat"
)

// EstimatorState represents the learning state of a model
type EstimatorState int

const (
	// NotFitted indicates the model has no parameters yet
	NotFitted EstimatorState = iota
	// Fitted indicates the model has been trained or loaded
	Fitted
)

// Transformer maps a feature matrix to another feature matrix.
type Transformer interface {
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// Regressor predicts one continuous target per row.
type Regressor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// BaseEstimator is the base structure for preprocessing estimators
type BaseEstimator struct {
	// State holds the model's learning state. Public for gob encoding.
	State EstimatorState

	// ModelType identifies the type of model
	ModelType string

	// Version is the model version
	Version string
}

// IsFitted returns whether the estimator has been fitted or loaded.
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the estimator as fitted.
//
// Should only be called by estimator implementations once their parameters
// are complete, either after Fit or after loading an exported artifact.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns the estimator to its initial untrained state.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}
