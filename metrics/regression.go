// Package metrics provides regression metrics for evaluating yield predictions
// against observed yields.
//
//   - MSE, RMSE: squared error and its root
//   - MAE: mean absolute error
//   - R2Score: coefficient of determination
//   - MAPE: mean absolute percentage error over non-zero targets
//   - ExplainedVarianceScore: share of target variance explained
//
// Inputs are gonum vectors. Evaluate computes all of them at once:
//
//	report, err := metrics.Evaluate(yTrue, yPred)
//	fmt.Println(report.R2)
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/yieldcast/pkg/errors"
)

// Report holds every regression metric for one evaluation.
type Report struct {
	N                 int     `json:"n"`
	MSE               float64 `json:"mse"`
	RMSE              float64 `json:"rmse"`
	MAE               float64 `json:"mae"`
	R2                float64 `json:"r2"`
	MAPE              float64 `json:"mape"`
	ExplainedVariance float64 `json:"explained_variance"`
}

// residuals validates the inputs and returns yTrue - yPred along with yTrue.
func residuals(op string, yTrue, yPred *mat.VecDense) (truth, diff []float64, err error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, nil, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return nil, nil, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}

	truth = mat.Col(nil, 0, yTrue)
	diff = make([]float64, n)
	floats.SubTo(diff, truth, mat.Col(nil, 0, yPred))
	return truth, diff, nil
}

// MSE calculates the Mean Squared Error between true and predicted values.
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	_, diff, err := residuals("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Dot(diff, diff) / float64(len(diff)), nil
}

// MSEMatrix is MSE for (n×1) matrices.
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("MSEMatrix", "empty matrix")
	}
	if rTrue != rPred || cTrue != cPred {
		return 0, errors.NewDimensionError("MSEMatrix", rTrue, rPred, 0)
	}
	if cTrue != 1 {
		return 0, errors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix)")
	}

	return MSE(mat.NewVecDense(rTrue, mat.Col(nil, 0, yTrue)), mat.NewVecDense(rPred, mat.Col(nil, 0, yPred)))
}

// RMSE is the square root of MSE, in the target's units.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the Mean Absolute Error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	_, diff, err := residuals("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Norm(diff, 1) / float64(len(diff)), nil
}

// R2Score calculates the coefficient of determination, 1 - RSS/TSS.
// Fails when yTrue has no variance.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, diff, err := residuals("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	mean := stat.Mean(truth, nil)
	var tss float64
	for _, v := range truth {
		tss += (v - mean) * (v - mean)
	}
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}

	return 1 - floats.Dot(diff, diff)/tss, nil
}

// MAPE calculates the Mean Absolute Percentage Error, in percent.
// Samples with a zero target are skipped.
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, diff, err := residuals("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	validCount := 0
	for i, v := range truth {
		if v != 0 {
			sum += math.Abs(diff[i]) / math.Abs(v)
			validCount++
		}
	}
	if validCount == 0 {
		return 0, errors.NewValueError("MAPE", "all yTrue values are zero")
	}

	return sum / float64(validCount) * 100, nil
}

// ExplainedVarianceScore is 1 - Var(yTrue - yPred) / Var(yTrue), using
// population variances.
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, diff, err := residuals("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	_, varTrue := stat.PopMeanVariance(truth, nil)
	if varTrue == 0 {
		return 0, errors.NewValueError("ExplainedVarianceScore", "no variance in yTrue")
	}
	_, varDiff := stat.PopMeanVariance(diff, nil)

	return 1 - varDiff/varTrue, nil
}

// Evaluate computes every metric. Metrics undefined for the data (R² and
// explained variance on a constant target, MAPE on all-zero targets) are NaN.
func Evaluate(yTrue, yPred *mat.VecDense) (*Report, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	mae, err := MAE(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	orNaN := func(v float64, err error) float64 {
		if err != nil {
			return math.NaN()
		}
		return v
	}

	return &Report{
		N:                 yTrue.Len(),
		MSE:               mse,
		RMSE:              math.Sqrt(mse),
		MAE:               mae,
		R2:                orNaN(R2Score(yTrue, yPred)),
		MAPE:              orNaN(MAPE(yTrue, yPred)),
		ExplainedVariance: orNaN(ExplainedVarianceScore(yTrue, yPred)),
	}, nil
}
