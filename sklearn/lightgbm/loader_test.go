package lightgbm_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/yieldcast/sklearn/lightgbm"
)

func TestLoadFromString(t *testing.T) {
	m, err := lightgbm.LoadFromString(twoTreeModel)
	require.NoError(t, err)

	assert.Equal(t, "v3", m.Version)
	assert.Equal(t, 1, m.NumClass)
	assert.Equal(t, 2, m.NumFeatures)
	assert.Equal(t, 2, m.NumIteration)
	assert.Equal(t, lightgbm.RegressionL2, m.Objective)
	assert.Equal(t, []string{"Rainfall_Temp", "Area_log"}, m.FeatureNames)

	require.Len(t, m.Trees, 2)
	assert.Len(t, m.Trees[0].Nodes, 2)
	assert.True(t, m.Trees[0].Nodes[0].DefaultLeft)
	assert.False(t, m.Trees[0].Nodes[1].DefaultLeft)
	assert.Empty(t, m.Trees[1].Nodes)
	assert.Equal(t, []float64{0.5}, m.Trees[1].LeafValues)
}

func TestModel_Predict(t *testing.T) {
	m, err := lightgbm.LoadFromString(twoTreeModel)
	require.NoError(t, err)

	tests := []struct {
		name     string
		features []float64
		want     float64
	}{
		{"left leaf", []float64{0.0, 0.0}, 1.5},
		{"threshold is inclusive", []float64{0.5, 100}, 1.5},
		{"middle leaf", []float64{1.0, 1.0}, 2.5},
		{"right leaf", []float64{1.0, 3.0}, 3.5},
		{"missing goes default left", []float64{math.NaN(), 3.0}, 1.5},
		{"missing goes right without default", []float64{1.0, math.NaN()}, 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.Predict(tt.features), 1e-12)
		})
	}
}

func TestModel_PredictLogLink(t *testing.T) {
	m, err := lightgbm.LoadFromString(strings.Replace(twoTreeModel, "objective=regression", "objective=poisson", 1))
	require.NoError(t, err)

	assert.Equal(t, lightgbm.RegressionPoisson, m.Objective)
	assert.InDelta(t, 1.5, m.PredictRaw([]float64{0, 0}), 1e-12)
	assert.InDelta(t, math.Exp(1.5), m.Predict([]float64{0, 0}), 1e-12)
}

func TestModel_FeatureImportance(t *testing.T) {
	m, err := lightgbm.LoadFromString(twoTreeModel)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, m.FeatureImportance())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.txt")
	require.NoError(t, os.WriteFile(path, []byte(twoTreeModel), 0o600))

	m, err := lightgbm.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumIteration)

	_, err = lightgbm.LoadFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		model string
	}{
		{"empty", ""},
		{"multiclass", strings.Replace(twoTreeModel, "num_class=1", "num_class=3", 1)},
		{"bad leaf value", strings.Replace(twoTreeModel, "leaf_value=1 2 3", "leaf_value=1 x 3", 1)},
		{"short threshold", strings.Replace(twoTreeModel, "threshold=0.5 2.0000000000000004", "threshold=0.5", 1)},
		{"categorical split", strings.Replace(twoTreeModel, "decision_type=2 0", "decision_type=3 0", 1)},
		{"child out of range", strings.Replace(twoTreeModel, "right_child=1 -3", "right_child=1 -7", 1)},
		{"self loop", strings.Replace(twoTreeModel, "right_child=1 -3", "right_child=0 -3", 1)},
		{"child cycle", strings.Replace(twoTreeModel, "left_child=-1 -2", "left_child=-1 0", 1)},
		{"bad tree index", strings.Replace(twoTreeModel, "Tree=1", "Tree=one", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lightgbm.LoadFromString(tt.model)
			assert.Error(t, err)
		})
	}
}
