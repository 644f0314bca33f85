package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/ezoic/yieldcast/features"
	"github.com/ezoic/yieldcast/pkg/errors"
)

// bindInputFlags registers the request flags shared by predict and sweep.
func bindInputFlags(cmd *cobra.Command, raw *features.RawInput) {
	f := cmd.Flags()
	f.StringVar(&raw.State, "state", "", "state name, as written in the dataset")
	f.StringVar(&raw.CropType, "crop-type", "", "crop season type, e.g. Kharif")
	f.StringVar(&raw.Crop, "crop", "", "crop name, e.g. Rice")
	f.Float64Var(&raw.RainfallMM, "rainfall", 0, "rainfall in mm")
	f.Float64Var(&raw.TemperatureC, "temperature", 0, "temperature in °C")
	f.Float64Var(&raw.AreaHectares, "area", 1, "cultivated area in hectares")
	for _, name := range []string{"state", "crop-type", "crop", "rainfall", "temperature"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

// errorRecord is the JSON form of a failed request.
type errorRecord struct {
	Type    string      `json:"type"`
	Field   string      `json:"field,omitempty"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
}

func describe(err error) errorRecord {
	var (
		invalid  *errors.InvalidInputError
		infer    *errors.InferenceError
		overflow *errors.NumericOverflowError
	)
	switch {
	case errors.As(err, &invalid):
		return errorRecord{Type: "invalid_input", Field: invalid.Field, Value: invalid.Value, Message: invalid.Error()}
	case errors.As(err, &infer):
		return errorRecord{Type: "inference", Field: infer.Field, Value: infer.Value, Message: infer.Error()}
	case errors.As(err, &overflow):
		return errorRecord{Type: "numeric_overflow", Message: overflow.Error()}
	default:
		return errorRecord{Type: "internal", Message: err.Error()}
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
