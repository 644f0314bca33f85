// Package linear provides the linear regressor used as the final step of a
// trained yield pipeline.
//
// LinearRegression is restored from coefficients exported by scikit-learn and
// evaluates y = X·w + b with gonum/mat. Models are not trained here:
//
//	lr := linear.NewLinearRegression()
//	if err := lr.LoadFromSKLearn("regressor.json"); err != nil {
//		log.Fatal(err)
//	}
//	predictions, err := lr.Predict(X)
//
// The same envelope can be written back with ExportToSKLearn, which is how
// test fixtures and synthetic artifacts are produced.
package linear

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/yieldcast/core/model"
	ycErrors "github.com/ezoic/yieldcast/pkg/errors"
	"github.com/ezoic/yieldcast/pkg/log"
)

// LinearRegression is a fitted ordinary least squares model
type LinearRegression struct {
	State     *model.StateManager // State manager (composition instead of embedding)
	Weights   *mat.VecDense       // Model weights (coefficients)
	Intercept float64             // Model intercept
	NFeatures int                 // Number of features
	logger    log.Logger
}

// NewLinearRegression creates an empty model. Load parameters with
// LoadFromSKLearn, LoadFromSKLearnReader or SetParameters before predicting.
func NewLinearRegression() *LinearRegression {
	lr := &LinearRegression{
		State: model.NewStateManager(),
	}

	lr.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "LinearRegression",
	)

	return lr
}

// NewLinearRegressionFromParams creates a fitted model from coefficients and intercept.
func NewLinearRegressionFromParams(coefficients []float64, intercept float64) (*LinearRegression, error) {
	lr := NewLinearRegression()
	if err := lr.SetParameters(coefficients, intercept); err != nil {
		return nil, err
	}
	return lr, nil
}

// SetParameters replaces the model parameters and marks it fitted.
func (lr *LinearRegression) SetParameters(coefficients []float64, intercept float64) error {
	if len(coefficients) == 0 {
		return ycErrors.NewModelError("LinearRegression.SetParameters", "empty coefficients", ycErrors.ErrEmptyData)
	}
	for i, c := range coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return ycErrors.NewValueError("LinearRegression.SetParameters",
				fmt.Sprintf("coefficient %d is not finite", i))
		}
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return ycErrors.NewValueError("LinearRegression.SetParameters", "intercept is not finite")
	}

	lr.NFeatures = len(coefficients)
	lr.Intercept = intercept
	lr.Weights = mat.NewVecDense(len(coefficients), append([]float64(nil), coefficients...))
	lr.State.SetFitted()
	// sample count is unknown for loaded models
	lr.State.SetDimensions(lr.NFeatures, 0)
	return nil
}

// Predict computes y_pred = X * weights + intercept.
//
// Returns an (n_samples, 1) matrix.
//
// Errors:
//   - NotFittedError: if no parameters have been loaded
//   - DimensionError: if X has a different number of columns than the model
func (lr *LinearRegression) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer ycErrors.Recover(&err, "LinearRegression.Predict")
	if !lr.State.IsFitted() {
		return nil, ycErrors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, ycErrors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	lr.logger.Debug("Prediction started",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	var out mat.VecDense
	out.MulVec(X, lr.Weights)
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		predictions.Set(i, 0, out.AtVec(i)+lr.Intercept)
	}

	return predictions, nil
}

// GetWeights returns a copy of the coefficients
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	return mat.Col(nil, 0, lr.Weights)
}

// GetIntercept returns the intercept, or 0 when not fitted
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.State.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// LoadFromSKLearn loads a model from a JSON file exported from scikit-learn.
func (lr *LinearRegression) LoadFromSKLearn(filename string) (err error) {
	defer ycErrors.Recover(&err, "LinearRegression.LoadFromSKLearn")
	file, err := os.Open(filepath.Clean(filename))
	if err != nil {
		return ycErrors.Wrap(err, "failed to open file")
	}
	defer func() { _ = file.Close() }()

	return lr.LoadFromSKLearnReader(file)
}

// LoadFromSKLearnReader loads a scikit-learn LinearRegression envelope from r.
func (lr *LinearRegression) LoadFromSKLearnReader(r io.Reader) (err error) {
	defer ycErrors.Recover(&err, "LinearRegression.LoadFromSKLearnReader")
	skModel, err := model.LoadSKLearnModelFromReader(r)
	if err != nil {
		return ycErrors.Wrap(err, "failed to load sklearn model")
	}
	return lr.LoadFromSKLearnModel(skModel)
}

// LoadFromSKLearnModel loads parameters from an already decoded envelope.
// Pipelines use it for their nested regressor.
func (lr *LinearRegression) LoadFromSKLearnModel(skModel *model.SKLearnModel) error {
	params, err := model.LoadLinearRegressionParams(skModel)
	if err != nil {
		return ycErrors.Wrap(err, "failed to load linear regression params")
	}
	return lr.SetParameters(params.Coefficients, params.Intercept)
}

// ExportToSKLearn writes the model in scikit-learn compatible JSON format.
func (lr *LinearRegression) ExportToSKLearn(filename string) (err error) {
	defer ycErrors.Recover(&err, "LinearRegression.ExportToSKLearn")
	if !lr.State.IsFitted() {
		return ycErrors.NewNotFittedError("LinearRegression", "ExportToSKLearn")
	}

	file, err := os.Create(filepath.Clean(filename))
	if err != nil {
		return ycErrors.Wrap(err, "failed to create file")
	}
	defer func() { _ = file.Close() }()

	return lr.ExportToSKLearnWriter(file)
}

// ExportToSKLearnWriter writes the model envelope to w.
func (lr *LinearRegression) ExportToSKLearnWriter(w io.Writer) (err error) {
	defer ycErrors.Recover(&err, "LinearRegression.ExportToSKLearnWriter")
	params, err := lr.SKLearnParams()
	if err != nil {
		return err
	}
	return model.ExportSKLearnModel("LinearRegression", params, w)
}

// SKLearnParams returns the exportable parameters.
func (lr *LinearRegression) SKLearnParams() (*model.SKLearnLinearRegressionParams, error) {
	if !lr.State.IsFitted() {
		return nil, ycErrors.NewNotFittedError("LinearRegression", "SKLearnParams")
	}
	return &model.SKLearnLinearRegressionParams{
		Coefficients: lr.GetWeights(),
		Intercept:    lr.Intercept,
		NFeatures:    lr.NFeatures,
	}, nil
}

// IsFitted returns whether parameters have been loaded.
func (lr *LinearRegression) IsFitted() bool {
	return lr.State.IsFitted()
}

// GetParams returns a summary of the model.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_features": lr.NFeatures,
		"fitted":     lr.State.IsFitted(),
	}
}
