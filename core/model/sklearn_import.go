package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ezoic/yieldcast/pkg/errors"
)

// SupportedFormatVersion is the only envelope version this package reads and writes.
const SupportedFormatVersion = "1.0"

// SKLearnModelSpec is the metadata of an exported scikit-learn model
type SKLearnModelSpec struct {
	Name           string `json:"name"`                      // e.g. "LinearRegression", "Pipeline"
	FormatVersion  string `json:"format_version"`            // envelope version
	SKLearnVersion string `json:"sklearn_version,omitempty"` // exporting scikit-learn version
}

// SKLearnLinearRegressionParams are the fitted parameters of a linear model
type SKLearnLinearRegressionParams struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	NFeatures    int       `json:"n_features"`
}

// SKLearnModel is a model exported from scikit-learn. Params is decoded
// according to ModelSpec.Name.
type SKLearnModel struct {
	ModelSpec SKLearnModelSpec `json:"model_spec"`
	Params    json.RawMessage  `json:"params"`
}

// LoadSKLearnModelFromFile reads an exported model from a JSON file.
//
// Example:
//
//	m, err := model.LoadSKLearnModelFromFile("models/crop_yield_pipeline.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadSKLearnModelFromFile(filename string) (*SKLearnModel, error) {
	file, err := os.Open(filepath.Clean(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return LoadSKLearnModelFromReader(file)
}

// LoadSKLearnModelFromReader reads an exported model from r and validates the envelope.
func LoadSKLearnModelFromReader(r io.Reader) (*SKLearnModel, error) {
	var m SKLearnModel
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *SKLearnModel) validate() error {
	if m.ModelSpec.FormatVersion == "" {
		return errors.NewValueError("LoadSKLearnModel", "format_version is required")
	}
	if m.ModelSpec.FormatVersion != SupportedFormatVersion {
		return errors.NewValueError("LoadSKLearnModel",
			fmt.Sprintf("unsupported format version: %s", m.ModelSpec.FormatVersion))
	}
	if m.ModelSpec.Name == "" {
		return errors.NewValueError("LoadSKLearnModel", "model name is required")
	}
	return nil
}

// DecodeParams unmarshals Params into out after checking the model name.
func (m *SKLearnModel) DecodeParams(expectedName string, out interface{}) error {
	if err := m.validate(); err != nil {
		return err
	}
	if m.ModelSpec.Name != expectedName {
		return errors.NewValueError("DecodeParams",
			fmt.Sprintf("expected %s, got %s", expectedName, m.ModelSpec.Name))
	}
	if len(m.Params) == 0 {
		return errors.NewValueError("DecodeParams", "params are required")
	}
	if err := json.Unmarshal(m.Params, out); err != nil {
		return fmt.Errorf("failed to unmarshal params: %w", err)
	}
	return nil
}

// LoadLinearRegressionParams extracts LinearRegression parameters
func LoadLinearRegressionParams(m *SKLearnModel) (*SKLearnLinearRegressionParams, error) {
	var params SKLearnLinearRegressionParams
	if err := m.DecodeParams("LinearRegression", &params); err != nil {
		return nil, err
	}

	if len(params.Coefficients) == 0 {
		return nil, errors.NewValueError("LoadLinearRegressionParams",
			"coefficients cannot be empty")
	}

	if params.NFeatures != len(params.Coefficients) {
		return nil, errors.NewValueError("LoadLinearRegressionParams",
			fmt.Sprintf("n_features (%d) does not match coefficients length (%d)",
				params.NFeatures, len(params.Coefficients)))
	}

	return &params, nil
}

// NewSKLearnModel wraps params in an envelope of the supported version.
func NewSKLearnModel(modelName string, params interface{}) (*SKLearnModel, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	return &SKLearnModel{
		ModelSpec: SKLearnModelSpec{
			Name:          modelName,
			FormatVersion: SupportedFormatVersion,
		},
		Params: paramsJSON,
	}, nil
}

// ExportSKLearnModel writes params as an indented scikit-learn compatible envelope.
func ExportSKLearnModel(modelName string, params interface{}, w io.Writer) error {
	m, err := NewSKLearnModel(modelName, params)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	return nil
}
