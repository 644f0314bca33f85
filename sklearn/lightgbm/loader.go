package lightgbm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ezoic/yieldcast/pkg/errors"
)

// LoadFromFile loads a LightGBM model from a text file
func LoadFromFile(filePath string) (*Model, error) {
	return LoadFromFileWithBufferSize(filePath, bufio.MaxScanTokenSize)
}

// LoadFromFileWithBufferSize is LoadFromFile with a custom maximum line length.
// Large models can have tree lines longer than bufio.MaxScanTokenSize.
func LoadFromFileWithBufferSize(filePath string, bufferSize int) (*Model, error) {
	file, err := os.Open(filepath.Clean(filePath))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = file.Close() }()

	return LoadFromReaderWithBufferSize(file, bufferSize)
}

// LoadFromString loads a LightGBM model from string format
func LoadFromString(modelStr string) (*Model, error) {
	return LoadFromReaderWithBufferSize(strings.NewReader(modelStr), len(modelStr)+1)
}

// LoadFromReader loads a LightGBM model from an io.Reader
func LoadFromReader(reader io.Reader) (*Model, error) {
	return LoadFromReaderWithBufferSize(reader, bufio.MaxScanTokenSize)
}

// LoadFromReaderWithBufferSize loads a LightGBM model from an io.Reader with specified buffer size
func LoadFromReaderWithBufferSize(reader io.Reader, bufferSize int) (*Model, error) {
	scanner := bufio.NewScanner(reader)
	if bufferSize > bufio.MaxScanTokenSize {
		scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), bufferSize)
	}
	m := NewModel()
	m.NumClass = 0

	var currentTree *Tree
	treeParams := make(map[string]string)

	flush := func() error {
		if currentTree == nil {
			return nil
		}
		if err := finalizeTree(currentTree, treeParams); err != nil {
			return err
		}
		m.Trees = append(m.Trees, *currentTree)
		currentTree = nil
		treeParams = make(map[string]string)
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}

		if strings.HasPrefix(line, "Tree=") {
			if err := flush(); err != nil {
				return nil, err
			}
			treeIdx, err := strconv.Atoi(strings.TrimPrefix(line, "Tree="))
			if err != nil {
				return nil, errors.Wrap(err, "invalid tree index")
			}
			currentTree = &Tree{TreeIndex: treeIdx}
			continue
		}

		// trailer sections
		if line == "end of trees" || strings.HasPrefix(line, "feature_importances:") || line == "parameters:" {
			if err := flush(); err != nil {
				return nil, err
			}
			if line != "end of trees" {
				break
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if currentTree != nil {
			treeParams[key] = value
			continue
		}

		switch key {
		case "version":
			m.Version = value
		case "num_class":
			numClass, err := strconv.Atoi(value)
			if err != nil {
				return nil, errors.Wrap(err, "invalid num_class")
			}
			m.NumClass = numClass
		case "max_feature_idx":
			maxFeature, err := strconv.Atoi(value)
			if err != nil {
				return nil, errors.Wrap(err, "invalid max_feature_idx")
			}
			m.NumFeatures = maxFeature + 1
		case "objective":
			// e.g. "regression", "tweedie tweedie_variance_power:1.5"
			if objParts := strings.Fields(value); len(objParts) > 0 {
				m.Objective = ObjectiveType(objParts[0])
			}
		case "feature_names":
			m.FeatureNames = strings.Fields(value)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading model")
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if m.NumClass == 0 {
		m.NumClass = 1
	}
	if m.NumClass != 1 {
		return nil, errors.NewValueError("lightgbm.Load",
			fmt.Sprintf("num_class=%d: only single-output models are supported", m.NumClass))
	}
	if len(m.Trees) == 0 {
		return nil, errors.NewModelError("lightgbm.Load", "no trees", errors.ErrEmptyData)
	}
	if m.NumFeatures == 0 {
		return nil, errors.NewValueError("lightgbm.Load", "max_feature_idx is required")
	}
	m.NumIteration = len(m.Trees)

	return m, nil
}

// finalizeTree parses the tree parameters and constructs the tree nodes
func finalizeTree(tree *Tree, params map[string]string) error {
	if v, ok := params["num_leaves"]; ok {
		numLeaves, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "tree %d: invalid num_leaves", tree.TreeIndex)
		}
		tree.NumLeaves = numLeaves
	}

	if v, ok := params["shrinkage"]; ok {
		shrinkage, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "tree %d: invalid shrinkage", tree.TreeIndex)
		}
		tree.ShrinkageRate = shrinkage
	}

	leafValues, err := parseFloatArray(params["leaf_value"])
	if err != nil {
		return errors.Wrapf(err, "tree %d: leaf_value", tree.TreeIndex)
	}
	tree.LeafValues = leafValues
	if len(leafValues) == 0 {
		return errors.NewValueError("lightgbm.Load", fmt.Sprintf("tree %d has no leaf values", tree.TreeIndex))
	}

	// a single leaf is a constant prediction
	if tree.NumLeaves <= 1 {
		return nil
	}

	splitFeatures, err := parseIntArray(params["split_feature"])
	if err != nil {
		return errors.Wrapf(err, "tree %d: split_feature", tree.TreeIndex)
	}
	thresholds, err := parseFloatArray(params["threshold"])
	if err != nil {
		return errors.Wrapf(err, "tree %d: threshold", tree.TreeIndex)
	}
	leftChildren, err := parseIntArray(params["left_child"])
	if err != nil {
		return errors.Wrapf(err, "tree %d: left_child", tree.TreeIndex)
	}
	rightChildren, err := parseIntArray(params["right_child"])
	if err != nil {
		return errors.Wrapf(err, "tree %d: right_child", tree.TreeIndex)
	}
	decisionTypes, err := parseIntArray(params["decision_type"])
	if err != nil {
		return errors.Wrapf(err, "tree %d: decision_type", tree.TreeIndex)
	}

	numInternalNodes := tree.NumLeaves - 1
	for name, n := range map[string]int{
		"split_feature": len(splitFeatures),
		"threshold":     len(thresholds),
		"left_child":    len(leftChildren),
		"right_child":   len(rightChildren),
	} {
		if n != numInternalNodes {
			return errors.NewDimensionError("lightgbm.Load "+name, numInternalNodes, n, 0)
		}
	}
	if len(leafValues) != tree.NumLeaves {
		return errors.NewDimensionError("lightgbm.Load leaf_value", tree.NumLeaves, len(leafValues), 0)
	}

	tree.Nodes = make([]Node, 0, numInternalNodes)
	for i := 0; i < numInternalNodes; i++ {
		node := Node{
			NodeID:       i,
			LeftChild:    leftChildren[i],
			RightChild:   rightChildren[i],
			SplitFeature: splitFeatures[i],
			Threshold:    thresholds[i],
			NodeType:     NumericalNode,
		}

		if i < len(decisionTypes) {
			if decisionTypes[i]&1 != 0 {
				return errors.NewValueError("lightgbm.Load",
					fmt.Sprintf("tree %d node %d: categorical splits are not supported", tree.TreeIndex, i))
			}
			node.DefaultLeft = decisionTypes[i]&(1<<1) != 0
		}

		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child >= numInternalNodes || ^child >= tree.NumLeaves {
				return errors.NewValueError("lightgbm.Load",
					fmt.Sprintf("tree %d node %d: child %d out of range", tree.TreeIndex, i, child))
			}
			// Internal children must come after their parent, so every walk
			// from the root terminates at a leaf.
			if child >= 0 && child <= i {
				return errors.NewValueError("lightgbm.Load",
					fmt.Sprintf("tree %d node %d: child %d does not follow its parent", tree.TreeIndex, i, child))
			}
		}

		tree.Nodes = append(tree.Nodes, node)
	}

	return nil
}

// parseIntArray parses a space-separated string of integers
func parseIntArray(s string) ([]int, error) {
	parts := strings.Fields(s)
	result := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// parseFloatArray parses a space-separated string of floats
func parseFloatArray(s string) ([]float64, error) {
	parts := strings.Fields(s)
	result := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}
