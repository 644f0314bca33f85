// Package forecast runs the prediction request path: catalog check, feature
// construction, inference and result synthesis.
//
// A Forecaster holds the process-wide catalog and predictor through atomic
// stores. Every request takes one snapshot of each, so a reload that lands
// mid-request is never observed half applied.
package forecast

import (
	"time"

	"github.com/google/uuid"

	"github.com/ezoic/yieldcast/catalog"
	"github.com/ezoic/yieldcast/features"
	"github.com/ezoic/yieldcast/pkg/errors"
	"github.com/ezoic/yieldcast/pkg/log"
	"github.com/ezoic/yieldcast/predictor"
	"github.com/ezoic/yieldcast/synthesis"
)

// Prediction is a successful forecast.
type Prediction struct {
	RequestID uuid.UUID         `json:"request_id"`
	Input     features.RawInput `json:"input"`
	synthesis.Result
	// Warnings lists catalog violations tolerated outside strict mode.
	Warnings []catalog.Violation `json:"warnings,omitempty"`
}

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithStrictCatalog rejects requests that fall outside the catalog with an
// InvalidInputError instead of logging a warning.
func WithStrictCatalog(strict bool) Option {
	return func(f *Forecaster) { f.strict = strict }
}

// WithLogger replaces the component logger.
func WithLogger(l log.Logger) Option {
	return func(f *Forecaster) { f.logger = l }
}

// Forecaster serves forecast requests. It is safe for concurrent use.
type Forecaster struct {
	catalogs   *catalog.Store
	predictors *predictor.Store
	strict     bool
	logger     log.Logger
}

// New creates a Forecaster over the given stores.
func New(catalogs *catalog.Store, predictors *predictor.Store, opts ...Option) (*Forecaster, error) {
	if catalogs == nil || catalogs.Load() == nil {
		return nil, errors.New("forecast: no catalog")
	}
	if predictors == nil || predictors.Load() == nil {
		return nil, errors.New("forecast: no predictor")
	}
	f := &Forecaster{
		catalogs:   catalogs,
		predictors: predictors,
		logger:     log.GetLoggerWithName("forecast"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Catalog returns the current catalog.
func (f *Forecaster) Catalog() *catalog.Catalog { return f.catalogs.Load() }

// Forecast predicts the yield for raw.
//
// Errors are typed: InvalidInputError for a bad request, InferenceError for a
// category the model never saw, NumericOverflowError for an unrepresentable
// result. A failed request never yields a partial Prediction.
func (f *Forecaster) Forecast(raw features.RawInput) (*Prediction, error) {
	start := time.Now()
	id := uuid.New()
	logger := f.logger.With(log.RequestIDKey, id.String())

	cat, pred := f.catalogs.Load(), f.predictors.Load()

	warnings, err := f.check(cat, raw, logger)
	if err != nil {
		return nil, f.fail(logger, err)
	}

	v, err := features.Build(raw)
	if err != nil {
		return nil, f.fail(logger, err)
	}

	logYield, err := pred.Predict(v)
	if err != nil {
		return nil, f.fail(logger, err)
	}

	res, err := synthesis.Synthesize(logYield, raw, cat)
	if err != nil {
		return nil, f.fail(logger, err)
	}

	logger.Debug("Forecast completed",
		log.OperationKey, log.OperationForecast,
		log.PhaseKey, log.PhaseInference,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return &Prediction{RequestID: id, Input: raw, Result: *res, Warnings: warnings}, nil
}

func (f *Forecaster) check(cat *catalog.Catalog, raw features.RawInput, logger log.Logger) ([]catalog.Violation, error) {
	violations := cat.Check(raw)
	if len(violations) == 0 {
		return nil, nil
	}
	if f.strict {
		return nil, violations[0].Err()
	}
	for _, v := range violations {
		logger.Warn("Input outside catalog",
			log.FieldKey, v.Field,
			log.ValueKey, v.Value,
			"reason", v.Reason,
		)
	}
	return violations, nil
}

func (f *Forecaster) fail(logger log.Logger, err error) error {
	logger.Info("Forecast rejected",
		log.OperationKey, log.OperationForecast,
		log.ErrorKey, err.Error(),
	)
	return err
}
