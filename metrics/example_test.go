package metrics_test

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/yieldcast/metrics"
)

// observed and predicted yields in tons per hectare
var (
	observed  = mat.NewVecDense(4, []float64{2.0, 1.5, 3.2, 0.8})
	predicted = mat.NewVecDense(4, []float64{2.2, 1.4, 2.9, 1.0})
)

func ExampleMSE() {
	mse, err := metrics.MSE(observed, predicted)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("MSE: %.3f\n", mse)

	// Output: MSE: 0.045
}

func ExampleRMSE() {
	rmse, err := metrics.RMSE(observed, predicted)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("RMSE: %.3f t/ha\n", rmse)

	// Output: RMSE: 0.212 t/ha
}

func ExampleR2Score() {
	r2, err := metrics.R2Score(observed, predicted)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("R² Score: %.3f\n", r2)

	// Output: R² Score: 0.941
}

// ExampleMAPE skips zero targets
func ExampleMAPE() {
	yTrue := mat.NewVecDense(5, []float64{2.0, 1.5, 3.2, 0.8, 0})
	yPred := mat.NewVecDense(5, []float64{2.2, 1.4, 2.9, 1.0, 0.3})

	mape, err := metrics.MAPE(yTrue, yPred)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("MAPE: %.1f%%\n", mape)

	// Output: MAPE: 12.8%
}

func ExampleEvaluate() {
	report, err := metrics.Evaluate(observed, predicted)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("n=%d mae=%.2f r2=%.3f ev=%.3f\n", report.N, report.MAE, report.R2, report.ExplainedVariance)

	// Output: n=4 mae=0.20 r2=0.941 ev=0.941
}
