package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/yieldcast/core/model"
	ycErrors "github.com/ezoic/yieldcast/pkg/errors"
)

// HandleUnknown controls what OneHotEncoder.Transform does with a category
// that was not seen during Fit.
type HandleUnknown string

const (
	// HandleUnknownError rejects unseen categories with an UnknownCategoryError.
	HandleUnknownError HandleUnknown = "error"
	// HandleUnknownIgnore encodes unseen categories as an all-zero block.
	HandleUnknownIgnore HandleUnknown = "ignore"
)

// UnknownCategoryError reports a category that the encoder never saw.
// Feature is the input column index; Column is its name when known.
type UnknownCategoryError struct {
	Feature int
	Column  string
	Value   string
}

func (e *UnknownCategoryError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("found unknown category %q in column %s during transform", e.Value, e.Column)
	}
	return fmt.Sprintf("found unknown category %q in column %d during transform", e.Value, e.Feature)
}

// Unwrap lets callers match with errors.Is(err, errors.ErrUnknownCategory).
func (e *UnknownCategoryError) Unwrap() error { return ycErrors.ErrUnknownCategory }

// OneHotEncoder is a scikit-learn compatible one-hot encoder.
// It converts categorical string columns into 0/1 indicator blocks.
type OneHotEncoder struct {
	model.BaseEstimator

	// Categories are the sorted categories of each input column
	Categories [][]string

	// CategoryToIdx maps category to position within its column block
	CategoryToIdx []map[string]int

	// NFeatures is the number of input columns
	NFeatures int

	// NOutputs is the total number of indicator columns
	NOutputs int

	// HandleUnknown is the policy for unseen categories (default: error)
	HandleUnknown HandleUnknown
}

// NewOneHotEncoder creates an unfitted OneHotEncoder that rejects unseen categories.
//
// Example:
//
//	encoder := preprocessing.NewOneHotEncoder()
//	err := encoder.Fit(data)
//	encoded, err := encoder.Transform(data)
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{HandleUnknown: HandleUnknownError}
}

// NewOneHotEncoderFromCategories creates a fitted encoder from exported
// categories, as written by scikit-learn's OneHotEncoder.categories_.
// The category order of each column is kept as given.
func NewOneHotEncoderFromCategories(categories [][]string, handleUnknown HandleUnknown) (_ *OneHotEncoder, err error) {
	defer ycErrors.Recover(&err, "NewOneHotEncoderFromCategories")
	if len(categories) == 0 {
		return nil, ycErrors.NewModelError("NewOneHotEncoderFromCategories", "empty categories", ycErrors.ErrEmptyData)
	}
	switch handleUnknown {
	case "":
		handleUnknown = HandleUnknownError
	case HandleUnknownError, HandleUnknownIgnore:
	default:
		return nil, ycErrors.NewValidationError("handle_unknown", "must be \"error\" or \"ignore\"", handleUnknown)
	}

	e := &OneHotEncoder{HandleUnknown: handleUnknown}
	e.setCategories(categories)
	for j, cats := range e.Categories {
		if len(cats) == 0 {
			return nil, ycErrors.NewValueError("NewOneHotEncoderFromCategories",
				fmt.Sprintf("column %d has no categories", j))
		}
		if len(e.CategoryToIdx[j]) != len(cats) {
			return nil, ycErrors.NewValueError("NewOneHotEncoderFromCategories",
				fmt.Sprintf("column %d has duplicate categories", j))
		}
	}
	e.SetFitted()
	return e, nil
}

// Fit learns the sorted categories of each column.
//
// Parameters:
//   - data: training data (n_samples × n_features)
func (e *OneHotEncoder) Fit(data [][]string) (err error) {
	defer ycErrors.Recover(&err, "OneHotEncoder.Fit")
	if len(data) == 0 {
		return ycErrors.NewModelError("OneHotEncoder.Fit", "empty data", ycErrors.ErrEmptyData)
	}

	if len(data[0]) == 0 {
		return ycErrors.NewModelError("OneHotEncoder.Fit", "empty features", ycErrors.ErrEmptyData)
	}

	nFeatures := len(data[0])

	for i, row := range data {
		if len(row) != nFeatures {
			return ycErrors.NewDimensionError("OneHotEncoder.Fit", nFeatures, len(row), i)
		}
	}

	categories := make([][]string, nFeatures)
	for j := 0; j < nFeatures; j++ {
		seen := make(map[string]struct{})
		for _, row := range data {
			seen[row[j]] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		categories[j] = cats
	}

	if e.HandleUnknown == "" {
		e.HandleUnknown = HandleUnknownError
	}
	e.setCategories(categories)
	e.SetFitted()
	return nil
}

func (e *OneHotEncoder) setCategories(categories [][]string) {
	e.NFeatures = len(categories)
	e.Categories = make([][]string, len(categories))
	e.CategoryToIdx = make([]map[string]int, len(categories))
	e.NOutputs = 0
	for j, cats := range categories {
		e.Categories[j] = append([]string(nil), cats...)
		idx := make(map[string]int, len(cats))
		for i, c := range cats {
			idx[c] = i
		}
		e.CategoryToIdx[j] = idx
		e.NOutputs += len(cats)
	}
}

// Transform one-hot encodes data with the fitted categories.
//
// With HandleUnknownError an unseen category fails the whole call with an
// *UnknownCategoryError; with HandleUnknownIgnore its block stays zero.
func (e *OneHotEncoder) Transform(data [][]string) (_ mat.Matrix, err error) {
	defer ycErrors.Recover(&err, "OneHotEncoder.Transform")
	if !e.IsFitted() {
		return nil, ycErrors.NewNotFittedError("OneHotEncoder", "Transform")
	}

	if len(data) == 0 {
		return &mat.Dense{}, nil
	}

	nSamples := len(data)
	for _, row := range data {
		if len(row) != e.NFeatures {
			return nil, ycErrors.NewDimensionError("OneHotEncoder.Transform", e.NFeatures, len(row), 1)
		}
	}

	result := mat.NewDense(nSamples, e.NOutputs, nil)

	for i := 0; i < nSamples; i++ {
		outputIdx := 0
		for j := 0; j < e.NFeatures; j++ {
			category := data[i][j]
			if idx, ok := e.CategoryToIdx[j][category]; ok {
				result.Set(i, outputIdx+idx, 1.0)
			} else if e.HandleUnknown != HandleUnknownIgnore {
				return nil, ycErrors.WithStack(&UnknownCategoryError{Feature: j, Value: category})
			}
			outputIdx += len(e.Categories[j])
		}
	}

	return result, nil
}

// FitTransform fits on data and encodes it.
func (e *OneHotEncoder) FitTransform(data [][]string) (_ mat.Matrix, err error) {
	defer ycErrors.Recover(&err, "OneHotEncoder.FitTransform")
	if err := e.Fit(data); err != nil {
		return nil, err
	}
	return e.Transform(data)
}

// GetFeatureNamesOut returns the encoded column names.
//
// For inputFeatures ["Crop", "State_Name"] the output looks like
// ["Crop_Maize", "Crop_Rice", "State_Name_Bihar", "State_Name_Punjab"].
// When inputFeatures is nil, "x0", "x1", ... are used.
func (e *OneHotEncoder) GetFeatureNamesOut(inputFeatures []string) []string {
	if !e.IsFitted() {
		return nil
	}

	var outputFeatures []string
	for i, categories := range e.Categories {
		inputFeatureName := fmt.Sprintf("x%d", i)
		if inputFeatures != nil && i < len(inputFeatures) {
			inputFeatureName = inputFeatures[i]
		}
		for _, category := range categories {
			outputFeatures = append(outputFeatures, fmt.Sprintf("%s_%s", inputFeatureName, category))
		}
	}

	return outputFeatures
}
