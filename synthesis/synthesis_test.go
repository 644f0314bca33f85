package synthesis_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/yieldcast/catalog"
	"github.com/ezoic/yieldcast/features"
	"github.com/ezoic/yieldcast/pkg/errors"
	"github.com/ezoic/yieldcast/synthesis"
)

type fixedRange catalog.Range

func (r fixedRange) TemperatureRange(string, string) catalog.Range { return catalog.Range(r) }

func punjabRice() features.RawInput {
	return features.RawInput{
		State: "Punjab", CropType: "Kharif", Crop: "Rice",
		RainfallMM: 1000, TemperatureC: 25, AreaHectares: 10,
	}
}

func categories(advs []synthesis.Advisory) []string {
	out := make([]string, len(advs))
	for i, a := range advs {
		out[i] = a.Category
	}
	return out
}

func TestSynthesize_InverseTransform(t *testing.T) {
	tests := []struct {
		name      string
		logYield  float64
		wantYield float64
		wantTotal float64
	}{
		{"zero", 0, 0, 0},
		{"one", 1, math.E - 1, 10 * (math.E - 1)},
		{"negative", -0.5, math.Exp(-0.5) - 1, 10 * (math.Exp(-0.5) - 1)},
		{"tiny", 1e-12, 1e-12, 1e-11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := synthesis.Synthesize(tt.logYield, punjabRice(), nil)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantYield, res.YieldPerHectare, 1e-15)
			assert.InDelta(t, tt.wantTotal, res.TotalProduction, 1e-12)
		})
	}
}

func TestSynthesize_EndToEndValues(t *testing.T) {
	res, err := synthesis.Synthesize(1.0, punjabRice(), nil)
	require.NoError(t, err)

	assert.InDelta(t, 1.71828, res.YieldPerHectare, 1e-5)
	assert.InDelta(t, 17.1828, res.TotalProduction, 1e-4)
	require.NotNil(t, res.RainfallTemperatureIndex)
	assert.Equal(t, 40.0, *res.RainfallTemperatureIndex)
}

func TestSynthesize_ZeroTemperature(t *testing.T) {
	raw := punjabRice()
	raw.TemperatureC = 0

	res, err := synthesis.Synthesize(1.0, raw, nil)
	require.NoError(t, err)
	assert.Nil(t, res.RainfallTemperatureIndex)
	assert.Equal(t, []string{synthesis.CategoryWaterManagement}, categories(res.Advisories))
}

func TestSynthesize_Overflow(t *testing.T) {
	tests := []struct {
		name     string
		logYield float64
		area     float64
	}{
		{"nan", math.NaN(), 10},
		{"positive infinity", math.Inf(1), 10},
		{"negative infinity", math.Inf(-1), 10},
		{"exp overflows", 1000, 10},
		{"total overflows", 700, math.MaxFloat64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := punjabRice()
			raw.AreaHectares = tt.area
			res, err := synthesis.Synthesize(tt.logYield, raw, nil)
			assert.Nil(t, res)

			var overflow *errors.NumericOverflowError
			require.ErrorAs(t, err, &overflow)
		})
	}
}

func TestAdvise_Rainfall(t *testing.T) {
	tests := []struct {
		name     string
		rainfall float64
		want     string
	}{
		{"dry", 400, synthesis.CategoryIrrigationAlert},
		{"just below threshold", 499.99, synthesis.CategoryIrrigationAlert},
		{"threshold", 500, synthesis.CategoryWaterManagement},
		{"wet", 800, synthesis.CategoryWaterManagement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := punjabRice()
			raw.RainfallMM = tt.rainfall
			got := categories(synthesis.Advise(raw, nil))
			assert.Equal(t, []string{tt.want}, got)
		})
	}
}

func TestAdvise_OptimalConditions(t *testing.T) {
	ranges := fixedRange{Min: 25, Max: 28}

	advs := synthesis.Advise(punjabRice(), ranges)
	require.Len(t, advs, 2)
	assert.Equal(t, synthesis.CategoryWaterManagement, advs[0].Category)
	assert.Equal(t, synthesis.CategoryOptimalConditions, advs[1].Category)
	assert.Equal(t, "Selected temperature of 25°C is within the favorable range for Rice in Punjab.", advs[1].Message)

	hot := punjabRice()
	hot.TemperatureC = 35
	assert.Equal(t, []string{synthesis.CategoryWaterManagement}, categories(synthesis.Advise(hot, ranges)))
}

func TestAdvise_CatalogRanges(t *testing.T) {
	c, err := catalog.Load("../testdata/reference.csv")
	require.NoError(t, err)

	raw := punjabRice()
	raw.RainfallMM = 400
	raw.TemperatureC = 27.5
	assert.Equal(t,
		[]string{synthesis.CategoryIrrigationAlert, synthesis.CategoryOptimalConditions},
		categories(synthesis.Advise(raw, c)))

	raw.TemperatureC = 29
	assert.Equal(t, []string{synthesis.CategoryIrrigationAlert}, categories(synthesis.Advise(raw, c)))
}
