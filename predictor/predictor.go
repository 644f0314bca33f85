// Package predictor adapts a trained yield pipeline to the single contract the
// forecast path needs: a feature vector in, a predicted log-yield out.
//
// The inverse transform back to tons per hectare is deliberately not applied
// here; see package synthesis.
package predictor

import (
	"github.com/ezoic/yieldcast/features"
	"github.com/ezoic/yieldcast/pkg/errors"
	"github.com/ezoic/yieldcast/pkg/log"
	"github.com/ezoic/yieldcast/preprocessing"
	"github.com/ezoic/yieldcast/sklearn/pipeline"
)

// Predictor returns the predicted log-yield for one feature vector.
// Implementations are deterministic and safe for concurrent use.
type Predictor interface {
	Predict(v features.Vector) (float64, error)
}

// BatchPredictor is implemented by predictors that can score many vectors in
// one call.
type BatchPredictor interface {
	Predictor
	PredictBatch(vs []features.Vector) ([]float64, error)
}

// Func adapts an ordinary function to the Predictor interface.
type Func func(v features.Vector) (float64, error)

// Predict calls f(v).
func (f Func) Predict(v features.Vector) (float64, error) { return f(v) }

// fieldNames maps categorical columns to the request field a caller supplied.
var fieldNames = map[string]string{
	features.StateName: "state",
	features.CropType:  "crop_type",
	features.Crop:      "crop",
}

// PipelinePredictor runs a restored scikit-learn pipeline.
type PipelinePredictor struct {
	pipe   *pipeline.Pipeline
	path   string
	logger log.Logger
}

// Load restores the pipeline artifact at path. Any failure, including an
// artifact trained on a different feature schema or target transform, is a
// PredictorUnavailableError.
func Load(path string) (*PipelinePredictor, error) {
	pipe, err := pipeline.LoadFromFile(path)
	if err != nil {
		return nil, errors.NewPredictorUnavailableError(path, err)
	}
	p, err := New(pipe)
	if err != nil {
		return nil, errors.NewPredictorUnavailableError(path, err)
	}
	p.path = path

	p.logger.Info("Predictor loaded",
		log.OperationKey, log.OperationLoad,
		log.PathKey, path,
		log.FeaturesKey, len(features.Schema),
	)
	return p, nil
}

// New wraps an already restored pipeline.
func New(pipe *pipeline.Pipeline) (*PipelinePredictor, error) {
	if err := checkSchema(pipe); err != nil {
		return nil, err
	}
	return &PipelinePredictor{
		pipe:   pipe,
		logger: log.GetLoggerWithName("predictor").With(log.ModelNameKey, pipe.RegressorName()),
	}, nil
}

func checkSchema(pipe *pipeline.Pipeline) error {
	names := pipe.FeatureNamesIn()
	if len(names) != len(features.Schema) {
		return errors.NewDimensionError("predictor.New", len(features.Schema), len(names), 1)
	}
	for i, n := range names {
		if n != features.Schema[i] {
			return errors.NewValidationError("feature_names_in",
				"must match the feature schema "+features.Schema[i]+" at this position", n)
		}
	}
	if pipe.TargetTransform() != pipeline.TargetLog1p {
		return errors.NewValidationError("target_transform", "must be \"log1p\"", pipe.TargetTransform())
	}
	return nil
}

// Path returns the artifact path, or "" for a pipeline wrapped with New.
func (p *PipelinePredictor) Path() string { return p.path }

// Pipeline returns the underlying pipeline.
func (p *PipelinePredictor) Pipeline() *pipeline.Pipeline { return p.pipe }

// Predict returns the predicted log-yield for v.
//
// A categorical value the pipeline never saw during training is reported as
// an InferenceError naming the request field and value.
func (p *PipelinePredictor) Predict(v features.Vector) (float64, error) {
	out, err := p.PredictBatch([]features.Vector{v})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// PredictBatch scores vs in one pass through the pipeline.
func (p *PipelinePredictor) PredictBatch(vs []features.Vector) ([]float64, error) {
	if len(vs) == 0 {
		return []float64{}, nil
	}
	if err := p.checkCategories(vs); err != nil {
		return nil, err
	}
	out, err := p.pipe.Predict(features.NewFrame(vs))
	if err != nil {
		return nil, inferenceError(err)
	}
	return out, nil
}

// checkCategories rejects values outside the encoder's vocabulary. An encoder
// restored with handle_unknown "ignore" would otherwise score them as an
// all-zero block.
func (p *PipelinePredictor) checkCategories(vs []features.Vector) error {
	ct := p.pipe.Preprocessor()
	if ct == nil || ct.Encoder == nil {
		return nil
	}
	for j, col := range ct.CategoricalColumns {
		if j >= len(ct.Encoder.CategoryToIdx) {
			break
		}
		known := ct.Encoder.CategoryToIdx[j]
		for _, v := range vs {
			raw, ok := v.Value(col)
			if !ok {
				continue
			}
			value, _ := raw.(string)
			if _, seen := known[value]; !seen {
				return inferenceError(&preprocessing.UnknownCategoryError{Feature: j, Column: col, Value: value})
			}
		}
	}
	return nil
}

func inferenceError(err error) error {
	var unknown *preprocessing.UnknownCategoryError
	if errors.As(err, &unknown) {
		field, ok := fieldNames[unknown.Column]
		if !ok {
			field = unknown.Column
		}
		return errors.NewInferenceError(field, unknown.Value, err)
	}
	return errors.Wrap(err, "predict")
}
