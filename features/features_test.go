package features_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/yieldcast/features"
	ycErrors "github.com/ezoic/yieldcast/pkg/errors"
)

func punjabRice() features.RawInput {
	return features.RawInput{
		State:        "Punjab",
		CropType:     "Kharif",
		Crop:         "Rice",
		RainfallMM:   1000,
		TemperatureC: 25,
		AreaHectares: 10,
	}
}

func TestBuild_PunjabRice(t *testing.T) {
	v, err := features.Build(punjabRice())
	require.NoError(t, err)

	want := features.Vector{
		StateName:      "Punjab",
		CropType:       "Kharif",
		Crop:           "Rice",
		Rainfall:       1000,
		Temperature:    25,
		AreaInHectares: 10,
		RainfallTemp:   25000,
		RainfallSq:     1000000,
		TempSq:         625,
		AreaLog:        math.Log1p(10),
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 2.3979, v.AreaLog, 1e-4)
}

func TestBuild_Deterministic(t *testing.T) {
	inputs := []features.RawInput{
		punjabRice(),
		{State: "Bihar", CropType: "Rabi", Crop: "Wheat", RainfallMM: 412.7, TemperatureC: 19.3, AreaHectares: 0.1},
		{State: "assam", CropType: "Whole Year", Crop: "Tea", RainfallMM: 0, TemperatureC: -3, AreaHectares: 1e5},
	}

	for _, in := range inputs {
		a, err := features.Build(in)
		require.NoError(t, err)
		b, err := features.Build(in)
		require.NoError(t, err)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("Build(%+v) not deterministic:\n%s", in, diff)
		}
	}
}

func TestBuild_AreaLog(t *testing.T) {
	for _, area := range []float64{1e-9, 0.1, 1, 2.5, 10, 12345.678, 1e7} {
		in := punjabRice()
		in.AreaHectares = area
		v, err := features.Build(in)
		require.NoError(t, err)
		assert.InDelta(t, math.Log(1+area), v.AreaLog, 1e-12*math.Max(1, math.Log(1+area)), "area %v", area)
	}
}

func TestBuild_InvalidArea(t *testing.T) {
	for _, area := range []float64{0, -0.5, -1, -10, math.NaN()} {
		in := punjabRice()
		in.AreaHectares = area
		_, err := features.Build(in)

		var invalid *ycErrors.InvalidInputError
		require.True(t, errors.As(err, &invalid), "area %v: got %v", area, err)
		assert.Equal(t, "area_hectares", invalid.Field)
	}
}

func TestBuild_InvalidAreaMessage(t *testing.T) {
	in := punjabRice()
	in.AreaHectares = 0
	_, err := features.Build(in)
	require.Error(t, err)
	assert.Equal(t, "yieldcast: invalid area_hectares 0: must be greater than 0", err.Error())
}

func TestBuild_NonFinite(t *testing.T) {
	tests := []struct {
		name  string
		field string
		edit  func(*features.RawInput)
	}{
		{"nan rainfall", "rainfall_mm", func(r *features.RawInput) { r.RainfallMM = math.NaN() }},
		{"inf temperature", "temperature_c", func(r *features.RawInput) { r.TemperatureC = math.Inf(-1) }},
		{"inf area", "area_hectares", func(r *features.RawInput) { r.AreaHectares = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := punjabRice()
			tt.edit(&in)
			_, err := features.Build(in)
			var invalid *ycErrors.InvalidInputError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestBuild_OutOfCatalogValuesAccepted(t *testing.T) {
	in := punjabRice()
	in.State = "Atlantis"
	in.Crop = ""
	in.RainfallMM = 99999
	_, err := features.Build(in)
	assert.NoError(t, err)
}

func TestVector_Frame(t *testing.T) {
	v, err := features.Build(punjabRice())
	require.NoError(t, err)

	f := v.Frame()
	assert.Equal(t, features.Schema, f.Names())
	assert.Equal(t, 1, f.Len())

	crops, err := f.Strings(features.Crop)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rice"}, crops)

	rt, err := f.Floats(features.RainfallTemp)
	require.NoError(t, err)
	assert.Equal(t, []float64{25000}, rt)

	got, ok := v.Value(features.TempSq)
	require.True(t, ok)
	assert.Equal(t, 625.0, got)
	_, ok = v.Value("Yield")
	assert.False(t, ok)
}

func TestNewFrame_Stacks(t *testing.T) {
	a, err := features.Build(punjabRice())
	require.NoError(t, err)
	in := punjabRice()
	in.State = "Bihar"
	b, err := features.Build(in)
	require.NoError(t, err)

	f := features.NewFrame([]features.Vector{a, b})
	assert.Equal(t, 2, f.Len())
	states, err := f.Strings(features.StateName)
	require.NoError(t, err)
	assert.Equal(t, []string{"Punjab", "Bihar"}, states)
}

func TestSchemaNames_IsCopy(t *testing.T) {
	names := features.SchemaNames()
	names[0] = "mutated"
	assert.Equal(t, "State_Name", features.Schema[0])
}
