// Package synthesis converts a predicted log-yield into the physical result
// returned to callers and annotates it with agronomic advisories.
package synthesis

import (
	"fmt"
	"math"

	"github.com/ezoic/yieldcast/catalog"
	"github.com/ezoic/yieldcast/features"
	"github.com/ezoic/yieldcast/pkg/errors"
)

// IrrigationThresholdMM is the rainfall below which supplemental irrigation
// is advised.
const IrrigationThresholdMM = 500.0

// Advisory categories.
const (
	CategoryIrrigationAlert   = "irrigation_alert"
	CategoryWaterManagement   = "water_management"
	CategoryOptimalConditions = "optimal_conditions"
)

// Advisory is a non-blocking recommendation attached to a result.
type Advisory struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Result is a forecast in physical units.
type Result struct {
	YieldPerHectare float64 `json:"yield_per_hectare"`
	TotalProduction float64 `json:"total_production"`
	// RainfallTemperatureIndex is nil when temperature is zero.
	RainfallTemperatureIndex *float64   `json:"rainfall_temperature_index,omitempty"`
	Advisories               []Advisory `json:"advisories"`
}

// RangeSource supplies the favorable temperature band for a state and crop.
// *catalog.Catalog implements it.
type RangeSource interface {
	TemperatureRange(state, crop string) catalog.Range
}

// Synthesize inverts the log1p target transform and derives the result for
// raw. ranges may be nil, in which case no optimal-conditions advisory is
// produced.
//
// A non-finite logYield, or one whose inverse overflows, is a
// NumericOverflowError.
func Synthesize(logYield float64, raw features.RawInput, ranges RangeSource) (*Result, error) {
	if math.IsNaN(logYield) || math.IsInf(logYield, 0) {
		return nil, errors.NewNumericOverflowError("inverse log1p", logYield)
	}
	yield := math.Expm1(logYield)
	if math.IsInf(yield, 0) {
		return nil, errors.NewNumericOverflowError("inverse log1p", logYield)
	}
	total := yield * raw.AreaHectares
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return nil, errors.NewNumericOverflowError("total production", yield)
	}

	res := &Result{
		YieldPerHectare: yield,
		TotalProduction: total,
		Advisories:      Advise(raw, ranges),
	}
	if raw.TemperatureC != 0 {
		idx := raw.RainfallMM / raw.TemperatureC
		res.RainfallTemperatureIndex = &idx
	}
	return res, nil
}

// Advise evaluates the advisory rules for raw, rainfall first.
func Advise(raw features.RawInput, ranges RangeSource) []Advisory {
	out := make([]Advisory, 0, 2)
	if raw.RainfallMM < IrrigationThresholdMM {
		out = append(out, Advisory{
			Category: CategoryIrrigationAlert,
			Message:  "Rainfall is relatively low. Consider supplemental irrigation for peak yield.",
		})
	} else {
		out = append(out, Advisory{
			Category: CategoryWaterManagement,
			Message:  "Predicted rainfall is sufficient. Focus on drainage systems to avoid waterlogging.",
		})
	}

	if ranges != nil {
		if r := ranges.TemperatureRange(raw.State, raw.Crop); r.Contains(raw.TemperatureC) {
			out = append(out, Advisory{
				Category: CategoryOptimalConditions,
				Message: fmt.Sprintf("Selected temperature of %g°C is within the favorable range for %s in %s.",
					raw.TemperatureC, raw.Crop, raw.State),
			})
		}
	}
	return out
}
