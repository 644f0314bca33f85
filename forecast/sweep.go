package forecast

import (
	"github.com/ezoic/yieldcast/catalog"
	"github.com/ezoic/yieldcast/features"
	"github.com/ezoic/yieldcast/pkg/errors"
)

// MaxSweepSteps bounds the size of a sweep.
const MaxSweepSteps = 1000

// SweepPoint is one forecast of a sweep.
type SweepPoint struct {
	Value      float64     `json:"value"`
	Prediction *Prediction `json:"prediction"`
}

// Sweep forecasts raw at steps evenly spaced values of field between from and
// to inclusive, holding every other input fixed. field is "rainfall" or
// "temperature". The first failing point aborts the sweep.
func (f *Forecaster) Sweep(raw features.RawInput, field string, from, to float64, steps int) ([]SweepPoint, error) {
	if field != catalog.FieldRainfall && field != catalog.FieldTemperature {
		return nil, errors.NewInvalidInputError("field", field, `must be "rainfall" or "temperature"`)
	}
	if steps < 1 || steps > MaxSweepSteps {
		return nil, errors.NewInvalidInputError("steps", steps, "must be between 1 and 1000")
	}

	points := make([]SweepPoint, 0, steps)
	for i := 0; i < steps; i++ {
		x := from
		if steps > 1 {
			x = from + (to-from)*float64(i)/float64(steps-1)
		}
		in := raw
		if field == catalog.FieldRainfall {
			in.RainfallMM = x
		} else {
			in.TemperatureC = x
		}
		p, err := f.Forecast(in)
		if err != nil {
			return nil, errors.Wrapf(err, "sweep %s=%g", field, x)
		}
		points = append(points, SweepPoint{Value: x, Prediction: p})
	}
	return points, nil
}
