// Package frame provides a minimal column-oriented table.
//
// A Frame holds ordered, named columns of equal length. Each column is either
// categorical (string) or numeric (float64). Column order is significant: it is
// the order in which features are handed to a trained pipeline.
package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ezoic/yieldcast/pkg/errors"
)

// Kind is the storage type of a column.
type Kind int

const (
	// String columns hold categorical values verbatim.
	String Kind = iota
	// Float columns hold float64 values.
	Float
)

func (k Kind) String() string {
	if k == Float {
		return "float"
	}
	return "string"
}

// Column is a named column. Exactly one of Strings or Floats is used, per Kind.
type Column struct {
	Name    string
	Kind    Kind
	Strings []string
	Floats  []float64
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	if c.Kind == Float {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Frame is an ordered set of equal-length columns.
type Frame struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New creates an empty frame.
func New() *Frame {
	return &Frame{index: make(map[string]int)}
}

// AddStrings appends a categorical column.
func (f *Frame) AddStrings(name string, values []string) error {
	return f.add(&Column{Name: name, Kind: String, Strings: values})
}

// AddFloats appends a numeric column.
func (f *Frame) AddFloats(name string, values []float64) error {
	return f.add(&Column{Name: name, Kind: Float, Floats: values})
}

func (f *Frame) add(c *Column) error {
	if _, dup := f.index[c.Name]; dup {
		return errors.NewValidationError("column", "duplicate column name", c.Name)
	}
	if len(f.columns) > 0 && c.Len() != f.rows {
		return errors.NewDimensionError("Frame.Add", f.rows, c.Len(), 0)
	}
	f.rows = c.Len()
	f.index[c.Name] = len(f.columns)
	f.columns = append(f.columns, c)
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.columns[i], true
}

// Strings returns the values of a categorical column.
func (f *Frame) Strings(name string) ([]string, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, errors.Newf("column %q not found", name)
	}
	if c.Kind != String {
		return nil, errors.Newf("column %q is %s, not string", name, c.Kind)
	}
	return c.Strings, nil
}

// Floats returns the values of a numeric column.
func (f *Frame) Floats(name string) ([]float64, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, errors.Newf("column %q not found", name)
	}
	if c.Kind != Float {
		return nil, errors.Newf("column %q is %s, not float", name, c.Kind)
	}
	return c.Floats, nil
}

// Row returns a one-row frame holding row i of f.
func (f *Frame) Row(i int) (*Frame, error) {
	if i < 0 || i >= f.rows {
		return nil, errors.Newf("row %d out of range [0,%d)", i, f.rows)
	}
	out := New()
	for _, c := range f.columns {
		var err error
		if c.Kind == Float {
			err = out.AddFloats(c.Name, []float64{c.Floats[i]})
		} else {
			err = out.AddStrings(c.Name, []string{c.Strings[i]})
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadCSV parses a CSV document with a header row. Columns listed in numeric
// are parsed as float64, with empty cells read as NaN; the rest are kept as
// strings exactly as written, since categorical values must match the
// training-time encoding byte for byte.
func ReadCSV(r io.Reader, numeric ...string) (*Frame, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("ReadCSV", "missing header", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	isNumeric := make(map[string]bool, len(numeric))
	for _, n := range numeric {
		isNumeric[n] = true
	}

	strs := make([][]string, len(header))
	floats := make([][]float64, len(header))

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read CSV line %d", line)
		}
		for j, name := range header {
			if !isNumeric[name] {
				strs[j] = append(strs[j], record[j])
				continue
			}
			v := strings.TrimSpace(record[j])
			if v == "" {
				floats[j] = append(floats[j], math.NaN())
				continue
			}
			x, perr := strconv.ParseFloat(v, 64)
			if perr != nil {
				return nil, errors.NewValidationError(name,
					fmt.Sprintf("line %d: not a number", line), v)
			}
			floats[j] = append(floats[j], x)
		}
	}

	f := New()
	for j, name := range header {
		if isNumeric[name] {
			vals := floats[j]
			if vals == nil {
				vals = []float64{}
			}
			err = f.AddFloats(name, vals)
		} else {
			vals := strs[j]
			if vals == nil {
				vals = []string{}
			}
			err = f.AddStrings(name, vals)
		}
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}
