// Package catalog holds the Input Catalog: the categorical values and
// climate ranges observed in the reference dataset.
//
// A Catalog is built once from the dataset and never mutated. Reloading the
// dataset builds a new Catalog, which is published through a Store with a
// single atomic swap.
package catalog

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/yieldcast/core/frame"
	"github.com/ezoic/yieldcast/features"
	"github.com/ezoic/yieldcast/pkg/errors"
	"github.com/ezoic/yieldcast/pkg/log"
)

// Fields with a numeric range.
const (
	FieldRainfall    = features.Rainfall
	FieldTemperature = features.Temperature
)

// RequiredColumns must all be present in the reference dataset.
var RequiredColumns = []string{
	features.StateName, features.CropType, features.Crop,
	features.Rainfall, features.Temperature,
}

// Range is a closed interval of observed values.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Summary describes the distribution of a numeric column.
type Summary struct {
	Range
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

type pair struct{ state, crop string }

// Catalog is the immutable set of valid inputs derived from a dataset.
type Catalog struct {
	source    string
	rows      int
	states    []string
	cropTypes []string
	crops     []string
	members   map[string]map[string]struct{}
	summaries map[string]Summary
	tempByKey map[pair]Range
}

// Load reads the reference dataset at path.
func Load(path string) (*Catalog, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.NewCatalogLoadError(path, "", err)
	}
	defer func() { _ = file.Close() }()

	return Read(file, path)
}

// Read builds a catalog from a CSV stream. source names the stream in errors.
func Read(r io.Reader, source string) (*Catalog, error) {
	f, err := frame.ReadCSV(r, FieldRainfall, FieldTemperature)
	if err != nil {
		var verr *errors.ValidationError
		if errors.As(err, &verr) {
			return nil, errors.NewCatalogLoadError(source, verr.ParamName, err)
		}
		return nil, errors.NewCatalogLoadError(source, "", err)
	}
	return FromFrame(f, source)
}

// FromFrame builds a catalog from an already parsed dataset.
func FromFrame(f *frame.Frame, source string) (*Catalog, error) {
	for _, col := range RequiredColumns {
		if _, ok := f.Column(col); !ok {
			return nil, errors.NewCatalogLoadError(source, col, errors.New("required column is missing"))
		}
	}
	if f.Len() == 0 {
		return nil, errors.NewCatalogLoadError(source, "", errors.ErrEmptyData)
	}

	c := &Catalog{
		source:    source,
		rows:      f.Len(),
		members:   make(map[string]map[string]struct{}, 3),
		summaries: make(map[string]Summary, 2),
		tempByKey: make(map[pair]Range),
	}

	for _, col := range features.Categorical {
		values, err := f.Strings(col)
		if err != nil {
			return nil, errors.NewCatalogLoadError(source, col, err)
		}
		set, sorted := distinct(values)
		if len(sorted) == 0 {
			return nil, errors.NewCatalogLoadError(source, col, errors.New("no values"))
		}
		c.members[col] = set
		switch col {
		case features.StateName:
			c.states = sorted
		case features.CropType:
			c.cropTypes = sorted
		case features.Crop:
			c.crops = sorted
		}
	}

	for _, col := range []string{FieldRainfall, FieldTemperature} {
		values, err := f.Floats(col)
		if err != nil {
			return nil, errors.NewCatalogLoadError(source, col, err)
		}
		s, ok := summarize(values)
		if !ok {
			return nil, errors.NewCatalogLoadError(source, col, errors.New("no numeric values"))
		}
		c.summaries[col] = s
	}

	states, _ := f.Strings(features.StateName)
	crops, _ := f.Strings(features.Crop)
	temps, _ := f.Floats(FieldTemperature)
	for i, t := range temps {
		if math.IsNaN(t) {
			continue
		}
		k := pair{states[i], crops[i]}
		r, seen := c.tempByKey[k]
		if !seen {
			c.tempByKey[k] = Range{Min: t, Max: t}
			continue
		}
		c.tempByKey[k] = Range{Min: math.Min(r.Min, t), Max: math.Max(r.Max, t)}
	}

	log.GetLoggerWithName("catalog").Info("Catalog loaded",
		log.OperationKey, log.OperationLoad,
		log.PathKey, source,
		log.SamplesKey, c.rows,
		"states", len(c.states),
		"crop_types", len(c.cropTypes),
		"crops", len(c.crops),
	)
	return c, nil
}

// distinct returns the non-empty distinct values, as a set and sorted ascending.
func distinct(values []string) (map[string]struct{}, []string) {
	set := make(map[string]struct{})
	for _, v := range values {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	sorted := make([]string, 0, len(set))
	for v := range set {
		sorted = append(sorted, v)
	}
	sort.Strings(sorted)
	return set, sorted
}

// summarize ignores missing (NaN) values.
func summarize(values []float64) (Summary, bool) {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return Summary{}, false
	}
	mean, std := stat.MeanStdDev(present, nil)
	if len(present) == 1 {
		std = 0
	}
	return Summary{
		Range:  Range{Min: floats.Min(present), Max: floats.Max(present)},
		Mean:   mean,
		StdDev: std,
		Count:  len(present),
	}, true
}

// Source returns the path or name the catalog was read from.
func (c *Catalog) Source() string { return c.source }

// Rows returns the number of dataset rows.
func (c *Catalog) Rows() int { return c.rows }

// States returns the distinct states, sorted. The slice is a copy.
func (c *Catalog) States() []string { return append([]string(nil), c.states...) }

// CropTypes returns the distinct crop types, sorted. The slice is a copy.
func (c *Catalog) CropTypes() []string { return append([]string(nil), c.cropTypes...) }

// Crops returns the distinct crops, sorted. The slice is a copy.
func (c *Catalog) Crops() []string { return append([]string(nil), c.crops...) }

// Has reports whether value was observed in the categorical column.
func (c *Catalog) Has(column, value string) bool {
	_, ok := c.members[column][value]
	return ok
}

// Range returns the observed range of rainfall or temperature.
func (c *Catalog) Range(field string) (Range, error) {
	s, err := c.Summary(field)
	if err != nil {
		return Range{}, err
	}
	return s.Range, nil
}

// Summary returns the distribution of rainfall or temperature.
func (c *Catalog) Summary(field string) (Summary, error) {
	s, ok := c.summaries[field]
	if !ok {
		return Summary{}, errors.NewValidationError("field",
			fmt.Sprintf("must be %q or %q", FieldRainfall, FieldTemperature), field)
	}
	return s, nil
}

// TemperatureRange returns the temperatures observed for crop in state, or the
// global temperature range when the pair does not occur in the dataset.
func (c *Catalog) TemperatureRange(state, crop string) Range {
	if r, ok := c.tempByKey[pair{state, crop}]; ok {
		return r
	}
	return c.summaries[FieldTemperature].Range
}

// DisplayName title-cases a stored category for presentation. Stored values
// keep their original case.
func DisplayName(v string) string {
	return cases.Title(language.Und).String(v)
}

func formatRange(r Range) string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}
