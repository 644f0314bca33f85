package catalog

import (
	"math"

	"github.com/ezoic/yieldcast/features"
	"github.com/ezoic/yieldcast/pkg/errors"
)

// Violation is a soft constraint a request breaks: an unknown category or a
// value outside the observed range.
type Violation struct {
	Field  string      `json:"field"`
	Value  interface{} `json:"value"`
	Reason string      `json:"reason"`
}

// Err converts v to an InvalidInputError.
func (v Violation) Err() error {
	return errors.NewInvalidInputError(v.Field, v.Value, v.Reason)
}

// Check returns the violations of raw against the catalog, in field order.
// Violations are advisory: values outside the catalog are legitimate
// forecasting scenarios.
func (c *Catalog) Check(raw features.RawInput) []Violation {
	var out []Violation

	for _, m := range []struct {
		field, column, value string
	}{
		{"state", features.StateName, raw.State},
		{"crop_type", features.CropType, raw.CropType},
		{"crop", features.Crop, raw.Crop},
	} {
		if !c.Has(m.column, m.value) {
			out = append(out, Violation{Field: m.field, Value: m.value, Reason: "not present in the reference dataset"})
		}
	}

	for _, m := range []struct {
		field, column string
		value         float64
	}{
		{"rainfall_mm", FieldRainfall, raw.RainfallMM},
		{"temperature_c", FieldTemperature, raw.TemperatureC},
	} {
		r, err := c.Range(m.column)
		if err != nil || math.IsNaN(m.value) {
			continue
		}
		if !r.Contains(m.value) {
			out = append(out, Violation{
				Field:  m.field,
				Value:  m.value,
				Reason: "outside the observed range " + formatRange(r),
			})
		}
	}

	return out
}
