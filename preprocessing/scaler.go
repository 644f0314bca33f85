// Package preprocessing provides the feature preprocessing steps of a trained
// yield pipeline.
//
// This package implements scikit-learn compatible components:
//
//   - StandardScaler: standardizes numeric features with the mean and scale
//     learned at training time
//   - OneHotEncoder: encodes categorical features as one-hot blocks and
//     rejects categories unseen at training time
//   - ColumnTransformer: routes named frame columns to the two steps above and
//     concatenates their outputs in a fixed order
//
// Components are normally restored from an exported artifact rather than fitted
// here, so that inference applies exactly the transformation used in training:
//
//	scaler, err := preprocessing.NewStandardScalerFromParams(mean, scale)
//	if err != nil {
//		log.Fatal(err)
//	}
//	scaled, err := scaler.Transform(X)
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/yieldcast/core/model"
	ycErrors "github.com/ezoic/yieldcast/pkg/errors"
)

// StandardScaler is a scikit-learn compatible standardizer.
// It maps each feature to (x - mean) / scale.
type StandardScaler struct {
	model.BaseEstimator

	// Mean is the per-feature mean
	Mean []float64

	// Scale is the per-feature standard deviation
	Scale []float64

	// NFeatures is the number of features
	NFeatures int

	// WithMean subtracts the mean when true (default: true)
	WithMean bool

	// WithStd divides by the standard deviation when true (default: true)
	WithStd bool
}

// NewStandardScaler creates a new StandardScaler for feature standardization.
//
// Parameters:
//   - withMean: whether to center the data at zero by removing the mean
//   - withStd: whether to scale the data to unit variance
//
// Example:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X_train)
//	X_scaled, err := scaler.Transform(X_test)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler with both centering and scaling.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// NewStandardScalerFromParams creates a fitted scaler from exported mean_ and scale_.
//
// A zero scale is replaced by 1, matching scikit-learn's handling of constant features.
func NewStandardScalerFromParams(mean, scale []float64) (_ *StandardScaler, err error) {
	defer ycErrors.Recover(&err, "NewStandardScalerFromParams")
	if len(mean) == 0 {
		return nil, ycErrors.NewModelError("NewStandardScalerFromParams", "empty mean", ycErrors.ErrEmptyData)
	}
	if len(scale) != len(mean) {
		return nil, ycErrors.NewDimensionError("NewStandardScalerFromParams", len(mean), len(scale), 0)
	}

	s := NewStandardScalerDefault()
	s.NFeatures = len(mean)
	s.Mean = append([]float64(nil), mean...)
	s.Scale = make([]float64, len(scale))
	for j, v := range scale {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.IsNaN(mean[j]) || math.IsInf(mean[j], 0) {
			return nil, ycErrors.NewValueError("NewStandardScalerFromParams",
				fmt.Sprintf("non-finite parameter for feature %d", j))
		}
		if v == 0 {
			v = 1.0
		}
		s.Scale[j] = v
	}
	s.SetFitted()
	return s, nil
}

// Fit computes the per-feature mean and population standard deviation.
//
// Errors:
//   - ErrEmptyData: if X is empty
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer ycErrors.Recover(&err, "StandardScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return ycErrors.NewModelError("StandardScaler.Fit", "empty data", ycErrors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		if s.WithMean {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}

		s.Scale[j] = 1.0
		if s.WithStd {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			// constant features keep a unit scale
			if std := math.Sqrt(sumSquares / float64(r)); std >= 1e-8 {
				s.Scale[j] = std
			}
		}
	}

	s.SetFitted()
	return nil
}

// Transform applies X_scaled = (X - mean) / scale.
//
// Errors:
//   - ErrNotFitted: if the scaler hasn't been fitted yet
//   - ErrDimensionMismatch: if X doesn't match the number of features from training
func (s *StandardScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer ycErrors.Recover(&err, "StandardScaler.Transform")
	if !s.IsFitted() {
		return nil, ycErrors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, ycErrors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}

	return result, nil
}

// GetParams returns the scaler's hyperparameters.
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String returns a scikit-learn style representation.
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}
