package forecast

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/yieldcast/core/frame"
	"github.com/ezoic/yieldcast/features"
	"github.com/ezoic/yieldcast/metrics"
	"github.com/ezoic/yieldcast/pkg/errors"
	"github.com/ezoic/yieldcast/pkg/log"
	"github.com/ezoic/yieldcast/predictor"
)

// DefaultTarget is the yield column of the reference dataset.
const DefaultTarget = "Yield_ton_per_hec"

// Evaluate scores the current predictor against a labelled dataset. data must
// hold the raw input columns (State_Name, Crop_Type, Crop, rainfall,
// temperature, Area_in_hectares) and the target yield in tons per hectare.
// Predictions are compared in physical units, after the inverse transform.
func (f *Forecaster) Evaluate(data *frame.Frame, target string) (*metrics.Report, error) {
	start := time.Now()
	if target == "" {
		target = DefaultTarget
	}

	target64, err := data.Floats(target)
	if err != nil {
		return nil, errors.Wrap(err, "evaluate: target")
	}
	// Rows without a target value are unlabelled and are left out of scoring.
	rows := make([]int, 0, len(target64))
	truth := make([]float64, 0, len(target64))
	for i, y := range target64 {
		if math.IsNaN(y) {
			continue
		}
		rows = append(rows, i)
		truth = append(truth, y)
	}
	if skipped := len(target64) - len(rows); skipped > 0 {
		f.logger.Warn("Skipping rows without a target value",
			log.OperationKey, log.OperationEvaluate,
			"target", target,
			"skipped", skipped,
		)
	}
	if len(rows) == 0 {
		return nil, errors.NewModelError("Forecaster.Evaluate", "no labelled rows", errors.ErrEmptyData)
	}

	vs, err := vectors(data, rows)
	if err != nil {
		return nil, err
	}

	logYields, err := predictAll(f.predictors.Load(), vs, rows)
	if err != nil {
		return nil, err
	}
	preds := make([]float64, len(logYields))
	for i, l := range logYields {
		preds[i] = math.Expm1(l)
	}

	report, err := metrics.Evaluate(mat.NewVecDense(len(truth), truth), mat.NewVecDense(len(preds), preds))
	if err != nil {
		return nil, err
	}

	f.logger.Info("Evaluation completed",
		log.OperationKey, log.OperationEvaluate,
		log.SamplesKey, report.N,
		"r2", report.R2,
		"rmse", report.RMSE,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return report, nil
}

// vectors builds feature vectors for the given row indices of data.
func vectors(data *frame.Frame, rows []int) ([]features.Vector, error) {
	cols := make(map[string][]string, len(features.Categorical))
	for _, name := range features.Categorical {
		v, err := data.Strings(name)
		if err != nil {
			return nil, errors.Wrap(err, "evaluate")
		}
		cols[name] = v
	}
	nums := make(map[string][]float64, 3)
	for _, name := range []string{features.Rainfall, features.Temperature, features.AreaInHectares} {
		v, err := data.Floats(name)
		if err != nil {
			return nil, errors.Wrap(err, "evaluate")
		}
		nums[name] = v
	}

	out := make([]features.Vector, len(rows))
	for k, i := range rows {
		v, err := features.Build(features.RawInput{
			State:        cols[features.StateName][i],
			CropType:     cols[features.CropType][i],
			Crop:         cols[features.Crop][i],
			RainfallMM:   nums[features.Rainfall][i],
			TemperatureC: nums[features.Temperature][i],
			AreaHectares: nums[features.AreaInHectares][i],
		})
		if err != nil {
			return nil, errors.Wrapf(err, "evaluate: row %d", i+1)
		}
		out[k] = v
	}
	return out, nil
}

func predictAll(p predictor.Predictor, vs []features.Vector, rows []int) ([]float64, error) {
	if bp, ok := p.(predictor.BatchPredictor); ok {
		return bp.PredictBatch(vs)
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		l, err := p.Predict(v)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluate: row %d", rows[i]+1)
		}
		out[i] = l
	}
	return out, nil
}
