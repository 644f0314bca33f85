package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/yieldcast/pkg/errors"
)

const (
	testModel   = "../../testdata/crop_yield_pipeline.json"
	testDataset = "../../testdata/reference.csv"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--model", testModel, "--dataset", testDataset, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

var punjabRiceArgs = []string{
	"--state", "Punjab", "--crop-type", "Kharif", "--crop", "Rice",
	"--rainfall", "1000", "--temperature", "25", "--area", "10",
}

func TestPredict(t *testing.T) {
	out, err := run(t, "", append([]string{"predict"}, punjabRiceArgs...)...)
	require.NoError(t, err)

	var got struct {
		RequestID       string  `json:"request_id"`
		YieldPerHectare float64 `json:"yield_per_hectare"`
		TotalProduction float64 `json:"total_production"`
		Index           float64 `json:"rainfall_temperature_index"`
		Advisories      []struct {
			Category string `json:"category"`
		} `json:"advisories"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.RequestID)
	assert.InDelta(t, 2.004166, got.YieldPerHectare, 1e-6)
	assert.InDelta(t, 20.04166, got.TotalProduction, 1e-5)
	assert.Equal(t, 40.0, got.Index)
	require.Len(t, got.Advisories, 2)
	assert.Equal(t, "water_management", got.Advisories[0].Category)
}

func TestPredict_UnseenCrop(t *testing.T) {
	args := append([]string{"predict"}, punjabRiceArgs...)
	args = append(args, "--crop", "Unobtainium")
	_, err := run(t, "", args...)

	var infer *errors.InferenceError
	require.ErrorAs(t, err, &infer)
	assert.Equal(t, 1, exitCode(err))
}

func TestPredict_StartupFailure(t *testing.T) {
	args := append([]string{"predict", "--model", filepath.Join(t.TempDir(), "absent.json")}, punjabRiceArgs...)
	_, err := run(t, "", args...)
	require.Error(t, err)
	assert.True(t, errors.IsStartupError(err))
	assert.Equal(t, 2, exitCode(err))

	_, err = run(t, "", "catalog", "--dataset", filepath.Join(t.TempDir(), "absent.csv"))
	assert.Equal(t, 2, exitCode(err))
}

func TestCatalog(t *testing.T) {
	out, err := run(t, "", "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "states:      Bihar, Punjab")
	assert.Contains(t, out, "rainfall:    450..1400 mm")

	out, err = run(t, "", "catalog", "--json")
	require.NoError(t, err)
	var view catalogView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, []string{"Rice", "Wheat"}, view.Crops)
	assert.Equal(t, 18.0, view.Temperature.Min)
}

func TestBatch(t *testing.T) {
	input := strings.Join([]string{
		`{"state":"Punjab","crop_type":"Kharif","crop":"Rice","rainfall_mm":1000,"temperature_c":25,"area_hectares":10}`,
		``,
		`{"state":"Punjab","crop_type":"Kharif","crop":"Unobtainium","rainfall_mm":1000,"temperature_c":25,"area_hectares":10}`,
		`{"state":"Punjab","crop_type":"Kharif","crop":"Rice","rainfall_mm":1000,"temperature_c":25,"area_hectares":0}`,
		`not json`,
	}, "\n")

	out, err := run(t, input, "batch")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)

	var results []batchResult
	for _, l := range lines {
		var r batchResult
		require.NoError(t, json.Unmarshal([]byte(l), &r))
		results = append(results, r)
	}

	require.NotNil(t, results[0].Prediction)
	assert.Nil(t, results[0].Error)
	assert.Equal(t, 1, results[0].Line)

	require.NotNil(t, results[1].Error)
	assert.Equal(t, 3, results[1].Line)
	assert.Equal(t, "inference", results[1].Error.Type)
	assert.Equal(t, "crop", results[1].Error.Field)
	assert.Equal(t, "Unobtainium", results[1].Error.Value)

	require.NotNil(t, results[2].Error)
	assert.Equal(t, "invalid_input", results[2].Error.Type)
	assert.Equal(t, "area_hectares", results[2].Error.Field)

	require.NotNil(t, results[3].Error)
	assert.Equal(t, "invalid_input", results[3].Error.Type)
}

func TestBatch_InputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"state":"Bihar","crop_type":"Rabi","crop":"Wheat","rainfall_mm":600,"temperature_c":20,"area_hectares":15}`+"\n"), 0o600))

	out, err := run(t, "", "batch", "--input", path)
	require.NoError(t, err)
	var r batchResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.NotNil(t, r.Prediction)
	assert.InDelta(t, 1.054433, r.Prediction.YieldPerHectare, 1e-6)
}

func TestSweep(t *testing.T) {
	plotPath := filepath.Join(t.TempDir(), "sweep.png")
	args := append([]string{"sweep", "--from", "400", "--to", "800", "--steps", "3", "--plot", plotPath}, punjabRiceArgs...)
	out, err := run(t, "", args...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[1], "400 "))
	assert.True(t, strings.HasPrefix(lines[3], "800 "))

	info, err := os.Stat(plotPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSweep_DefaultsToCatalogRange(t *testing.T) {
	args := append([]string{"sweep", "--field", "temperature", "--steps", "2"}, punjabRiceArgs...)
	out, err := run(t, "", args...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "18 "))
	assert.True(t, strings.HasPrefix(lines[2], "30 "))
}

func TestEvaluate(t *testing.T) {
	out, err := run(t, "", "evaluate", "--data", testDataset)
	require.NoError(t, err)
	assert.Contains(t, out, "samples             6")
	assert.Contains(t, out, "r2                  1.000000")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yieldcast.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog:\n  strict: true\n"), 0o600))

	args := append([]string{"predict", "--config", path}, punjabRiceArgs...)
	args = append(args, "--rainfall", "5000")
	_, err := run(t, "", args...)
	var invalid *errors.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "rainfall_mm", invalid.Field)

	require.NoError(t, os.WriteFile(path, []byte("unknown: 1\n"), 0o600))
	_, err = run(t, "", "catalog", "--config", path)
	assert.Error(t, err)
}
