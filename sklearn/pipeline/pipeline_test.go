package pipeline_test

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/yieldcast/core/frame"
	ycErrors "github.com/ezoic/yieldcast/pkg/errors"
	"github.com/ezoic/yieldcast/preprocessing"
	"github.com/ezoic/yieldcast/sklearn/pipeline"
)

const (
	linearArtifact = "../../testdata/crop_yield_pipeline.json"
	lgbmArtifact   = "../../testdata/crop_yield_lgbm.json"
)

func cropFrame(t *testing.T, state, cropType, crop string, rainfall, temperature, area float64) *frame.Frame {
	t.Helper()
	f := frame.New()
	require.NoError(t, f.AddStrings("State_Name", []string{state}))
	require.NoError(t, f.AddStrings("Crop_Type", []string{cropType}))
	require.NoError(t, f.AddStrings("Crop", []string{crop}))
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"rainfall", rainfall},
		{"temperature", temperature},
		{"Area_in_hectares", area},
		{"Rainfall_Temp", rainfall * temperature},
		{"Rainfall_sq", rainfall * rainfall},
		{"Temp_sq", temperature * temperature},
		{"Area_log", math.Log1p(area)},
	} {
		require.NoError(t, f.AddFloats(c.name, []float64{c.v}))
	}
	return f
}

func TestLoadFromFile_Linear(t *testing.T) {
	p, err := pipeline.LoadFromFile(linearArtifact)
	require.NoError(t, err)

	assert.Equal(t, "LinearRegression", p.RegressorName())
	assert.Equal(t, pipeline.TargetLog1p, p.TargetTransform())
	assert.Len(t, p.FeatureNamesIn(), 10)
	assert.Equal(t, 13, p.Preprocessor().NOutputs())
	assert.Contains(t, p.NamedSteps(), "regressor")

	tests := []struct {
		name  string
		frame *frame.Frame
		want  float64
	}{
		{"punjab rice", cropFrame(t, "Punjab", "Kharif", "Rice", 1000, 25, 10), 1.1},
		{"punjab rice wetter", cropFrame(t, "Punjab", "Kharif", "Rice", 1200, 28, 12.5), 1.11},
		{"bihar wheat", cropFrame(t, "Bihar", "Rabi", "Wheat", 600, 20, 15), 0.72},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Predict(tt.frame)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.InDelta(t, tt.want, got[0], 1e-12)
		})
	}
}

func TestLoadFromFile_LightGBM(t *testing.T) {
	p, err := pipeline.LoadFromFile(lgbmArtifact)
	require.NoError(t, err)
	assert.Equal(t, "LGBMRegressor", p.RegressorName())

	tests := []struct {
		name  string
		frame *frame.Frame
		want  float64
	}{
		{"punjab rice", cropFrame(t, "Punjab", "Kharif", "Rice", 1000, 25, 10), 1.1},
		{"bihar rice", cropFrame(t, "Bihar", "Kharif", "Rice", 1400, 30, 8), 0.95},
		{"punjab dry wheat", cropFrame(t, "Punjab", "Rabi", "Wheat", 450, 18, 20), 0.7},
		{"bihar wheat", cropFrame(t, "Bihar", "Rabi", "Wheat", 600, 20, 15), 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Predict(tt.frame)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got[0], 1e-12)
		})
	}
}

func TestPredict_UnknownCategory(t *testing.T) {
	p, err := pipeline.LoadFromFile(linearArtifact)
	require.NoError(t, err)

	_, err = p.Predict(cropFrame(t, "Punjab", "Kharif", "Unobtainium", 1000, 25, 10))
	var unknown *preprocessing.UnknownCategoryError
	require.True(t, errors.As(err, &unknown), "got %v", err)
	assert.Equal(t, "Crop", unknown.Column)
	assert.Equal(t, "Unobtainium", unknown.Value)
}

func TestPredict_ColumnOrder(t *testing.T) {
	p, err := pipeline.LoadFromFile(linearArtifact)
	require.NoError(t, err)

	f := frame.New()
	require.NoError(t, f.AddStrings("Crop", []string{"Rice"}))
	_, err = p.Predict(f)
	var dimErr *ycErrors.DimensionError
	assert.True(t, errors.As(err, &dimErr), "got %v", err)

	// same columns, swapped order
	good := cropFrame(t, "Punjab", "Kharif", "Rice", 1000, 25, 10)
	swapped := frame.New()
	for _, name := range []string{"Crop_Type", "State_Name", "Crop"} {
		v, err := good.Strings(name)
		require.NoError(t, err)
		require.NoError(t, swapped.AddStrings(name, v))
	}
	for _, name := range good.Names()[3:] {
		v, err := good.Floats(name)
		require.NoError(t, err)
		require.NoError(t, swapped.AddFloats(name, v))
	}
	_, err = p.Predict(swapped)
	var valErr *ycErrors.ValidationError
	assert.True(t, errors.As(err, &valErr), "got %v", err)
}

func TestExport_RoundTrip(t *testing.T) {
	p, err := pipeline.LoadFromFile(linearArtifact)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Export(&buf))

	p2, err := pipeline.LoadFromReader(&buf, ".")
	require.NoError(t, err)
	assert.Equal(t, p.FeatureNamesIn(), p2.FeatureNamesIn())

	f := cropFrame(t, "Bihar", "Kharif", "Rice", 900, 27, 5)
	want, err := p.Predict(f)
	require.NoError(t, err)
	got, err := p2.Predict(f)
	require.NoError(t, err)
	assert.InDelta(t, want[0], got[0], 1e-12)
}

func TestExport_LightGBMNotSupported(t *testing.T) {
	p, err := pipeline.LoadFromFile(lgbmArtifact)
	require.NoError(t, err)

	err = p.Export(&bytes.Buffer{})
	assert.True(t, errors.Is(err, ycErrors.ErrNotImplemented), "got %v", err)
}

func TestLoad_Invalid(t *testing.T) {
	raw, err := os.ReadFile(linearArtifact)
	require.NoError(t, err)
	artifact := string(raw)

	tests := []struct {
		name string
		old  string
		new  string
	}{
		{"wrong envelope", `"name": "Pipeline"`, `"name": "LinearRegression"`},
		{"bad target transform", `"target_transform": "log1p"`, `"target_transform": "sqrt"`},
		{"unknown regressor", `"name": "LinearRegression"`, `"name": "SVR"`},
		{"regressor width", `"n_features": 13`, `"n_features": 12`},
		{"unknown column", `"columns": ["State_Name", "Crop_Type", "Crop"]`, `"columns": ["District", "Crop_Type", "Crop"]`},
		{"categories width", `[["Bihar", "Punjab"], ["Kharif", "Rabi"], ["Rice", "Wheat"]]`, `[["Bihar", "Punjab"], ["Kharif", "Rabi"]]`},
		{"bad handle_unknown", `"handle_unknown": "error"`, `"handle_unknown": "warn"`},
		{"scale width", `"scale": [500, 5, 1, 1, 1, 1, 1]`, `"scale": [500, 5]`},
		{"not json", `{`, `[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutated := strings.Replace(artifact, tt.old, tt.new, 1)
			require.NotEqual(t, artifact, mutated)
			_, err := pipeline.LoadFromReader(strings.NewReader(mutated), ".")
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile_MissingBooster(t *testing.T) {
	raw, err := os.ReadFile(lgbmArtifact)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = pipeline.LoadFromFile(path)
	assert.Error(t, err)
}
