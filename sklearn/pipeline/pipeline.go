// Package pipeline restores a trained scikit-learn Pipeline and runs it on
// feature frames.
//
// A pipeline is a "preprocessor" step (a ColumnTransformer turning named
// frame columns into a numeric matrix), optional matrix transformers, and a
// final "regressor" step. Pipelines are read from the JSON envelope written at
// training time:
//
//	{
//	  "model_spec": {"name": "Pipeline", "format_version": "1.0"},
//	  "params": {
//	    "feature_names_in": ["State_Name", ...],
//	    "target_transform": "log1p",
//	    "preprocessor": {"categorical": {...}, "numeric": {...}},
//	    "regressor": {"model_spec": {"name": "LGBMRegressor", ...}, "params": {...}}
//	  }
//	}
package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/yieldcast/core/frame"
	"github.com/ezoic/yieldcast/core/model"
	"github.com/ezoic/yieldcast/linear"
	"github.com/ezoic/yieldcast/pkg/errors"
	"github.com/ezoic/yieldcast/pkg/log"
	"github.com/ezoic/yieldcast/preprocessing"
	"github.com/ezoic/yieldcast/sklearn/lightgbm"
)

// Target transforms recorded in an artifact.
const (
	TargetLog1p = "log1p"
	TargetNone  = "none"
)

// Step is a named intermediate matrix transformer.
type Step struct {
	Name        string
	Transformer model.Transformer
}

// Pipeline is a restored, ready-to-predict scikit-learn pipeline.
type Pipeline struct {
	state  *model.StateManager
	logger log.Logger

	featureNamesIn  []string
	targetTransform string
	preprocessor    *preprocessing.ColumnTransformer
	steps           []Step
	regressor       model.Regressor
	regressorName   string
}

// New assembles a pipeline. Every preprocessor column must be one of
// featureNamesIn.
func New(featureNamesIn []string, targetTransform string, pre *preprocessing.ColumnTransformer,
	regressorName string, reg model.Regressor, steps ...Step) (*Pipeline, error) {
	if len(featureNamesIn) == 0 {
		return nil, errors.NewModelError("pipeline.New", "feature_names_in is empty", errors.ErrEmptyData)
	}
	if pre == nil || reg == nil {
		return nil, errors.NewValueError("pipeline.New", "preprocessor and regressor are required")
	}
	switch targetTransform {
	case "":
		targetTransform = TargetNone
	case TargetLog1p, TargetNone:
	default:
		return nil, errors.NewValidationError("target_transform", "must be \"log1p\" or \"none\"", targetTransform)
	}

	known := make(map[string]bool, len(featureNamesIn))
	for _, n := range featureNamesIn {
		if known[n] {
			return nil, errors.NewValidationError("feature_names_in", "duplicate feature", n)
		}
		known[n] = true
	}
	for _, cols := range [][]string{pre.CategoricalColumns, pre.NumericColumns} {
		for _, c := range cols {
			if !known[c] {
				return nil, errors.NewValidationError("preprocessor", "column not in feature_names_in", c)
			}
		}
	}

	p := &Pipeline{
		state:           model.NewStateManager(),
		logger:          log.GetLoggerWithName("Pipeline").With(log.ModelNameKey, regressorName),
		featureNamesIn:  append([]string(nil), featureNamesIn...),
		targetTransform: targetTransform,
		preprocessor:    pre,
		steps:           steps,
		regressor:       reg,
		regressorName:   regressorName,
	}
	p.state.SetFitted()
	p.state.SetDimensions(len(featureNamesIn), 0)
	return p, nil
}

// FeatureNamesIn returns the input columns in the order the pipeline was trained on.
func (p *Pipeline) FeatureNamesIn() []string {
	return append([]string(nil), p.featureNamesIn...)
}

// TargetTransform returns the transform applied to the target at training time.
func (p *Pipeline) TargetTransform() string { return p.targetTransform }

// RegressorName returns the scikit-learn name of the final step.
func (p *Pipeline) RegressorName() string { return p.regressorName }

// Preprocessor returns the column transformer step.
func (p *Pipeline) Preprocessor() *preprocessing.ColumnTransformer { return p.preprocessor }

// Steps returns the intermediate transformers.
func (p *Pipeline) Steps() []Step { return p.steps }

// NamedSteps returns every step keyed by name, like sklearn's named_steps.
func (p *Pipeline) NamedSteps() map[string]interface{} {
	named := map[string]interface{}{
		"preprocessor": p.preprocessor,
		"regressor":    p.regressor,
	}
	for _, s := range p.steps {
		named[s.Name] = s.Transformer
	}
	return named
}

// Transform runs every step except the regressor.
func (p *Pipeline) Transform(f *frame.Frame) (mat.Matrix, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}
	if err := p.checkColumns(f); err != nil {
		return nil, err
	}

	Xt, err := p.preprocessor.Transform(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to transform at step 'preprocessor'")
	}
	for _, step := range p.steps {
		Xt, err = step.Transformer.Transform(Xt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to transform at step '%s'", step.Name)
		}
	}
	return Xt, nil
}

// Predict returns one regressor output per row of f, on the training target's
// scale (log1p of the target when TargetTransform is "log1p").
func (p *Pipeline) Predict(f *frame.Frame) ([]float64, error) {
	start := time.Now()
	Xt, err := p.Transform(f)
	if err != nil {
		return nil, err
	}

	pred, err := p.regressor.Predict(Xt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to predict at step 'regressor'")
	}

	rows, _ := pred.Dims()
	out := mat.Col(nil, 0, pred)

	p.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, rows,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (p *Pipeline) checkColumns(f *frame.Frame) error {
	names := f.Names()
	if len(names) != len(p.featureNamesIn) {
		return errors.NewDimensionError("Pipeline.Predict", len(p.featureNamesIn), len(names), 1)
	}
	for i, n := range names {
		if n != p.featureNamesIn[i] {
			return errors.NewValidationError("feature names",
				fmt.Sprintf("must match those seen at training time, in order: expected %q at position %d", p.featureNamesIn[i], i), n)
		}
	}
	return nil
}

// SKLearnPipelineParams are the params of a "Pipeline" envelope.
type SKLearnPipelineParams struct {
	FeatureNamesIn  []string                 `json:"feature_names_in"`
	TargetTransform string                   `json:"target_transform"`
	Preprocessor    SKLearnPreprocessorParam `json:"preprocessor"`
	Regressor       *model.SKLearnModel      `json:"regressor"`
}

// SKLearnPreprocessorParam is the fitted state of the ColumnTransformer.
type SKLearnPreprocessorParam struct {
	Categorical SKLearnCategoricalParam `json:"categorical"`
	Numeric     SKLearnNumericParam     `json:"numeric"`
}

// SKLearnCategoricalParam mirrors OneHotEncoder.categories_.
type SKLearnCategoricalParam struct {
	Columns       []string                    `json:"columns"`
	Categories    [][]string                  `json:"categories"`
	HandleUnknown preprocessing.HandleUnknown `json:"handle_unknown,omitempty"`
}

// SKLearnNumericParam mirrors StandardScaler.mean_ and scale_.
type SKLearnNumericParam struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

// LoadFromFile reads a pipeline artifact. A relative regressor model_file is
// resolved against the artifact's directory.
func LoadFromFile(path string) (*Pipeline, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open pipeline")
	}
	defer func() { _ = file.Close() }()

	return LoadFromReader(file, filepath.Dir(path))
}

// LoadFromReader reads a pipeline artifact from r.
func LoadFromReader(r io.Reader, baseDir string) (_ *Pipeline, err error) {
	defer errors.Recover(&err, "pipeline.LoadFromReader")
	skModel, err := model.LoadSKLearnModelFromReader(r)
	if err != nil {
		return nil, err
	}

	var params SKLearnPipelineParams
	if err := skModel.DecodeParams("Pipeline", &params); err != nil {
		return nil, err
	}
	return FromParams(&params, baseDir)
}

// FromParams builds a pipeline from decoded params.
func FromParams(params *SKLearnPipelineParams, baseDir string) (*Pipeline, error) {
	cat, num := params.Preprocessor.Categorical, params.Preprocessor.Numeric

	var encoder *preprocessing.OneHotEncoder
	if len(cat.Columns) > 0 {
		if len(cat.Categories) != len(cat.Columns) {
			return nil, errors.NewDimensionError("preprocessor.categorical", len(cat.Columns), len(cat.Categories), 0)
		}
		var err error
		encoder, err = preprocessing.NewOneHotEncoderFromCategories(cat.Categories, cat.HandleUnknown)
		if err != nil {
			return nil, errors.Wrap(err, "preprocessor.categorical")
		}
	}

	var scaler *preprocessing.StandardScaler
	if len(num.Columns) > 0 {
		if len(num.Mean) != len(num.Columns) {
			return nil, errors.NewDimensionError("preprocessor.numeric", len(num.Columns), len(num.Mean), 0)
		}
		var err error
		scaler, err = preprocessing.NewStandardScalerFromParams(num.Mean, num.Scale)
		if err != nil {
			return nil, errors.Wrap(err, "preprocessor.numeric")
		}
	}

	pre, err := preprocessing.NewColumnTransformer(cat.Columns, encoder, num.Columns, scaler)
	if err != nil {
		return nil, err
	}

	if params.Regressor == nil {
		return nil, errors.NewValueError("pipeline.Load", "regressor is required")
	}
	reg, name, err := loadRegressor(params.Regressor, baseDir)
	if err != nil {
		return nil, err
	}

	if r, ok := reg.(interface{ GetParams() map[string]interface{} }); ok {
		if n, ok := r.GetParams()["n_features"].(int); ok && n != pre.NOutputs() {
			return nil, errors.NewDimensionError("pipeline.Load regressor", pre.NOutputs(), n, 1)
		}
	}

	return New(params.FeatureNamesIn, params.TargetTransform, pre, name, reg)
}

func loadRegressor(skModel *model.SKLearnModel, baseDir string) (model.Regressor, string, error) {
	name := skModel.ModelSpec.Name
	switch name {
	case "LinearRegression":
		lr := linear.NewLinearRegression()
		if err := lr.LoadFromSKLearnModel(skModel); err != nil {
			return nil, name, err
		}
		return lr, name, nil
	case "LGBMRegressor":
		lgb := lightgbm.NewLGBMRegressor()
		if err := lgb.LoadFromSKLearnModel(skModel, baseDir); err != nil {
			return nil, name, err
		}
		return lgb, name, nil
	default:
		return nil, name, errors.NewModelError("pipeline.Load",
			fmt.Sprintf("unsupported regressor %q", name), errors.ErrNotImplemented)
	}
}

// Export writes the pipeline as a JSON envelope. Only LinearRegression
// regressors and pipelines without intermediate steps can be exported.
func (p *Pipeline) Export(w io.Writer) error {
	lr, ok := p.regressor.(*linear.LinearRegression)
	if !ok || len(p.steps) > 0 {
		return errors.NewModelError("Pipeline.Export", p.regressorName, errors.ErrNotImplemented)
	}
	lrParams, err := lr.SKLearnParams()
	if err != nil {
		return err
	}
	regModel, err := model.NewSKLearnModel("LinearRegression", lrParams)
	if err != nil {
		return err
	}

	params := SKLearnPipelineParams{
		FeatureNamesIn:  p.featureNamesIn,
		TargetTransform: p.targetTransform,
		Regressor:       regModel,
	}
	if enc := p.preprocessor.Encoder; enc != nil && len(p.preprocessor.CategoricalColumns) > 0 {
		params.Preprocessor.Categorical = SKLearnCategoricalParam{
			Columns:       p.preprocessor.CategoricalColumns,
			Categories:    enc.Categories,
			HandleUnknown: enc.HandleUnknown,
		}
	}
	if sc := p.preprocessor.Scaler; sc != nil && len(p.preprocessor.NumericColumns) > 0 {
		params.Preprocessor.Numeric = SKLearnNumericParam{
			Columns: p.preprocessor.NumericColumns,
			Mean:    sc.Mean,
			Scale:   sc.Scale,
		}
	}
	return model.ExportSKLearnModel("Pipeline", params, w)
}
