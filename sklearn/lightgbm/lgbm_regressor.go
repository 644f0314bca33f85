package lightgbm

import (
	"fmt"
	"io"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/yieldcast/core/model"
	ycErrors "github.com/ezoic/yieldcast/pkg/errors"
	"github.com/ezoic/yieldcast/pkg/log"
)

// SKLearnLGBMRegressorParams are the params of an "LGBMRegressor" envelope.
// Exactly one of Model (the booster in text format) or ModelFile (a path,
// relative to the envelope's directory) is set.
type SKLearnLGBMRegressorParams struct {
	Model     string `json:"model,omitempty"`
	ModelFile string `json:"model_file,omitempty"`
	NFeatures int    `json:"n_features"`
}

// LGBMRegressor predicts with a LightGBM booster behind the scikit-learn
// Predict contract.
type LGBMRegressor struct {
	state  *model.StateManager
	logger log.Logger

	Model     *Model
	Objective string

	nFeatures int
}

// NewLGBMRegressor creates an empty regressor. Load a booster before predicting.
func NewLGBMRegressor() *LGBMRegressor {
	return &LGBMRegressor{
		state:     model.NewStateManager(),
		logger:    log.GetLoggerWithName("LGBMRegressor"),
		Objective: string(RegressionL2),
	}
}

// LoadModel loads a booster from a LightGBM text file
func (lgb *LGBMRegressor) LoadModel(path string) error {
	m, err := LoadFromFile(path)
	if err != nil {
		return ycErrors.Wrap(err, "failed to load model")
	}
	return lgb.setModel(m)
}

// LoadModelFromString loads a booster from its text representation
func (lgb *LGBMRegressor) LoadModelFromString(modelStr string) error {
	m, err := LoadFromString(modelStr)
	if err != nil {
		return ycErrors.Wrap(err, "failed to load model from string")
	}
	return lgb.setModel(m)
}

// LoadModelFromReader loads a booster from r
func (lgb *LGBMRegressor) LoadModelFromReader(r io.Reader) error {
	m, err := LoadFromReader(r)
	if err != nil {
		return ycErrors.Wrap(err, "failed to load model from reader")
	}
	return lgb.setModel(m)
}

// LoadFromSKLearnModel loads the booster referenced by an LGBMRegressor
// envelope. baseDir resolves a relative model_file.
func (lgb *LGBMRegressor) LoadFromSKLearnModel(skModel *model.SKLearnModel, baseDir string) error {
	var params SKLearnLGBMRegressorParams
	if err := skModel.DecodeParams("LGBMRegressor", &params); err != nil {
		return err
	}

	switch {
	case params.Model != "" && params.ModelFile != "":
		return ycErrors.NewValueError("LGBMRegressor.Load", "model and model_file are mutually exclusive")
	case params.Model != "":
		if err := lgb.LoadModelFromString(params.Model); err != nil {
			return err
		}
	case params.ModelFile != "":
		path := params.ModelFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		if err := lgb.LoadModel(path); err != nil {
			return err
		}
	default:
		return ycErrors.NewValueError("LGBMRegressor.Load", "model or model_file is required")
	}

	if params.NFeatures != 0 && params.NFeatures != lgb.nFeatures {
		n := lgb.nFeatures
		lgb.Reset()
		return ycErrors.NewValueError("LGBMRegressor.Load",
			fmt.Sprintf("n_features (%d) does not match booster (%d)", params.NFeatures, n))
	}
	return nil
}

func (lgb *LGBMRegressor) setModel(m *Model) error {
	switch m.Objective {
	case RegressionL2, RegressionL1, RegressionHuber, RegressionFair,
		RegressionPoisson, RegressionQuantile, RegressionGamma, RegressionTweedie:
	default:
		return ycErrors.NewValueError("LGBMRegressor.Load",
			fmt.Sprintf("unsupported objective %q", m.Objective))
	}

	lgb.Model = m
	lgb.Objective = string(m.Objective)
	lgb.nFeatures = m.NumFeatures
	lgb.state.SetFitted()
	lgb.state.SetDimensions(m.NumFeatures, 0)

	lgb.logger.Debug("Booster loaded",
		log.OperationKey, log.OperationLoad,
		log.FeaturesKey, m.NumFeatures,
		"trees", len(m.Trees),
		"objective", lgb.Objective,
	)
	return nil
}

// Predict makes predictions for input samples. Returns an (n_samples, 1) matrix.
func (lgb *LGBMRegressor) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer ycErrors.Recover(&err, "LGBMRegressor.Predict")
	if !lgb.state.IsFitted() {
		return nil, ycErrors.NewNotFittedError("LGBMRegressor", "Predict")
	}

	rows, cols := X.Dims()
	if cols != lgb.nFeatures {
		return nil, ycErrors.NewDimensionError("LGBMRegressor.Predict", lgb.nFeatures, cols, 1)
	}

	out := mat.NewDense(rows, 1, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out.Set(i, 0, lgb.Model.Predict(row))
	}
	return out, nil
}

// FeatureImportance returns split counts per feature, or nil if not loaded
func (lgb *LGBMRegressor) FeatureImportance() []float64 {
	if !lgb.state.IsFitted() || lgb.Model == nil {
		return nil
	}
	return lgb.Model.FeatureImportance()
}

// GetParams returns a summary of the loaded booster.
func (lgb *LGBMRegressor) GetParams() map[string]interface{} {
	params := map[string]interface{}{
		"objective":  lgb.Objective,
		"n_features": lgb.nFeatures,
	}
	if lgb.Model != nil {
		params["n_estimators"] = lgb.Model.NumIteration
	}
	return params
}

// IsFitted returns whether a booster has been loaded
func (lgb *LGBMRegressor) IsFitted() bool {
	return lgb.state.IsFitted()
}

// Reset discards the loaded booster.
func (lgb *LGBMRegressor) Reset() {
	lgb.Model = nil
	lgb.nFeatures = 0
	lgb.state.Reset()
}
