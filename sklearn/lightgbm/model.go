// Package lightgbm evaluates gradient boosted tree models saved by LightGBM.
//
// Models are read from LightGBM's text format (Booster.save_model or
// model_to_string) and evaluated in pure Go, so a regressor trained in Python
// can serve as the final step of a yield pipeline without cgo:
//
//	m, err := lightgbm.LoadFromFile("regressor.txt")
//	if err != nil {
//		log.Fatal(err)
//	}
//	raw := m.PredictRaw([]float64{...})
//
// Only numerical splits are supported; categorical features are expected to
// be one-hot encoded upstream.
package lightgbm

import (
	"math"
)

// ObjectiveType is the objective a model was trained with
type ObjectiveType string

const (
	RegressionL2       ObjectiveType = "regression"
	RegressionL1       ObjectiveType = "regression_l1"
	RegressionHuber    ObjectiveType = "huber"
	RegressionFair     ObjectiveType = "fair"
	RegressionPoisson  ObjectiveType = "poisson"
	RegressionQuantile ObjectiveType = "quantile"
	RegressionGamma    ObjectiveType = "gamma"
	RegressionTweedie  ObjectiveType = "tweedie"
)

// NodeType distinguishes split nodes from leaves
type NodeType int

const (
	NumericalNode NodeType = iota
	LeafNode
)

// Node is an internal split node. Children >= 0 index Tree.Nodes; a negative
// child c refers to leaf ^c (that is, -c-1) in Tree.LeafValues.
type Node struct {
	NodeID       int
	LeftChild    int
	RightChild   int
	SplitFeature int
	Threshold    float64
	DefaultLeft  bool // direction taken for missing values
	NodeType     NodeType
}

// Tree is one boosted regression tree
type Tree struct {
	TreeIndex     int
	NumLeaves     int
	ShrinkageRate float64
	Nodes         []Node
	LeafValues    []float64
}

// Predict returns the leaf value reached by features.
func (t *Tree) Predict(features []float64) float64 {
	if len(t.Nodes) == 0 {
		if len(t.LeafValues) == 0 {
			return 0
		}
		return t.LeafValues[0]
	}

	idx := 0
	for {
		node := &t.Nodes[idx]
		x := math.NaN()
		if node.SplitFeature < len(features) {
			x = features[node.SplitFeature]
		}

		var next int
		switch {
		case math.IsNaN(x):
			if node.DefaultLeft {
				next = node.LeftChild
			} else {
				next = node.RightChild
			}
		case x <= node.Threshold:
			next = node.LeftChild
		default:
			next = node.RightChild
		}

		if next < 0 {
			leaf := ^next
			if leaf >= len(t.LeafValues) {
				return 0
			}
			return t.LeafValues[leaf]
		}
		idx = next
	}
}

// Model is a loaded LightGBM booster
type Model struct {
	Version      string
	NumClass     int
	NumFeatures  int
	NumIteration int
	Objective    ObjectiveType
	FeatureNames []string
	Trees        []Tree
}

// NewModel creates an empty single-output model
func NewModel() *Model {
	return &Model{
		NumClass:  1,
		Objective: RegressionL2,
	}
}

// PredictRaw sums the outputs of all trees. LightGBM folds the initial score
// into the first tree's leaves, so no separate bias is added.
func (m *Model) PredictRaw(features []float64) float64 {
	sum := 0.0
	for i := range m.Trees {
		sum += m.Trees[i].Predict(features)
	}
	return sum
}

// Predict returns the prediction on the objective's output scale.
// Log-link objectives are exponentiated.
func (m *Model) Predict(features []float64) float64 {
	raw := m.PredictRaw(features)
	switch m.Objective {
	case RegressionPoisson, RegressionGamma, RegressionTweedie:
		return math.Exp(raw)
	default:
		return raw
	}
}

// FeatureImportance counts how often each feature is used in a split.
func (m *Model) FeatureImportance() []float64 {
	importance := make([]float64, m.NumFeatures)
	for _, t := range m.Trees {
		for _, n := range t.Nodes {
			if n.SplitFeature >= 0 && n.SplitFeature < len(importance) {
				importance[n.SplitFeature]++
			}
		}
	}
	return importance
}
