// Package features turns a raw forecast request into the fixed feature vector
// the trained pipeline consumes.
//
// The schema, its order and the derivation formulas mirror the transformation
// applied when the model was trained. Changing any of them silently corrupts
// predictions, so Schema is the single source of truth for column order.
package features

import (
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ezoic/yieldcast/core/frame"
	"github.com/ezoic/yieldcast/pkg/errors"
)

// Feature names, in schema order.
const (
	StateName      = "State_Name"
	CropType       = "Crop_Type"
	Crop           = "Crop"
	Rainfall       = "rainfall"
	Temperature    = "temperature"
	AreaInHectares = "Area_in_hectares"
	RainfallTemp   = "Rainfall_Temp"
	RainfallSq     = "Rainfall_sq"
	TempSq         = "Temp_sq"
	AreaLog        = "Area_log"
)

// Schema is the ordered list of feature names.
var Schema = []string{
	StateName, CropType, Crop,
	Rainfall, Temperature, AreaInHectares,
	RainfallTemp, RainfallSq, TempSq, AreaLog,
}

// Categorical lists the string-valued features.
var Categorical = []string{StateName, CropType, Crop}

// SchemaNames returns a copy of Schema.
func SchemaNames() []string {
	return append([]string(nil), Schema...)
}

// RawInput is one forecast request as supplied by a caller.
type RawInput struct {
	State        string  `json:"state"`
	CropType     string  `json:"crop_type"`
	Crop         string  `json:"crop"`
	RainfallMM   float64 `json:"rainfall_mm"`
	TemperatureC float64 `json:"temperature_c"`
	AreaHectares float64 `json:"area_hectares" validate:"gt=0"`
}

// Vector is the feature vector for one request. Categorical values are kept
// verbatim; the trained encoder is case sensitive.
type Vector struct {
	StateName      string
	CropType       string
	Crop           string
	Rainfall       float64
	Temperature    float64
	AreaInHectares float64
	RainfallTemp   float64
	RainfallSq     float64
	TempSq         float64
	AreaLog        float64
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Build derives the feature vector for raw. It is pure: equal inputs give
// equal vectors.
//
// Build rejects an area that is not strictly positive and non-finite numbers
// with an InvalidInputError. Category membership and catalog ranges are not
// checked here; values outside the observed ranges are legitimate scenarios.
func Build(raw RawInput) (Vector, error) {
	if err := validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return Vector{}, errors.NewInvalidInputError(fe.Field(), fe.Value(), reason(fe))
		}
		return Vector{}, errors.Wrap(err, "validate input")
	}

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"rainfall_mm", raw.RainfallMM},
		{"temperature_c", raw.TemperatureC},
		{"area_hectares", raw.AreaHectares},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return Vector{}, errors.NewInvalidInputError(f.name, f.value, "must be a finite number")
		}
	}

	r, t, a := raw.RainfallMM, raw.TemperatureC, raw.AreaHectares
	return Vector{
		StateName:      raw.State,
		CropType:       raw.CropType,
		Crop:           raw.Crop,
		Rainfall:       r,
		Temperature:    t,
		AreaInHectares: a,
		RainfallTemp:   r * t,
		RainfallSq:     r * r,
		TempSq:         t * t,
		AreaLog:        math.Log1p(a),
	}, nil
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// Strings returns the categorical features in schema order.
func (v Vector) Strings() []string {
	return []string{v.StateName, v.CropType, v.Crop}
}

// Floats returns the numeric features in schema order.
func (v Vector) Floats() []float64 {
	return []float64{
		v.Rainfall, v.Temperature, v.AreaInHectares,
		v.RainfallTemp, v.RainfallSq, v.TempSq, v.AreaLog,
	}
}

// Value returns the feature with the given schema name.
func (v Vector) Value(name string) (interface{}, bool) {
	for i, n := range Categorical {
		if n == name {
			return v.Strings()[i], true
		}
	}
	for i, n := range Schema[len(Categorical):] {
		if n == name {
			return v.Floats()[i], true
		}
	}
	return nil, false
}

// Frame returns v as a one-row frame with columns in schema order.
func (v Vector) Frame() *frame.Frame {
	return NewFrame([]Vector{v})
}

// NewFrame stacks vectors into a frame with columns in schema order.
func NewFrame(vs []Vector) *frame.Frame {
	f := frame.New()
	for j, name := range Categorical {
		col := make([]string, len(vs))
		for i, v := range vs {
			col[i] = v.Strings()[j]
		}
		// names are unique and lengths equal, so adding cannot fail
		_ = f.AddStrings(name, col)
	}
	for j, name := range Schema[len(Categorical):] {
		col := make([]float64, len(vs))
		for i, v := range vs {
			col[i] = v.Floats()[j]
		}
		_ = f.AddFloats(name, col)
	}
	return f
}
