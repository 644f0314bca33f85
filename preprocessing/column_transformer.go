package preprocessing

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/yieldcast/core/frame"
	ycErrors "github.com/ezoic/yieldcast/pkg/errors"
)

// ColumnTransformer applies a OneHotEncoder to the categorical columns of a
// frame and a StandardScaler to its numeric columns, then concatenates the
// results as [encoded | scaled], the order scikit-learn uses when the
// categorical transformer is listed first.
type ColumnTransformer struct {
	CategoricalColumns []string
	NumericColumns     []string
	Encoder            *OneHotEncoder
	Scaler             *StandardScaler
}

// NewColumnTransformer checks that the fitted encoder and scaler match the
// given column lists.
func NewColumnTransformer(categorical []string, encoder *OneHotEncoder, numeric []string, scaler *StandardScaler) (*ColumnTransformer, error) {
	if len(categorical) == 0 && len(numeric) == 0 {
		return nil, ycErrors.NewModelError("NewColumnTransformer", "no columns", ycErrors.ErrEmptyData)
	}
	if len(categorical) > 0 {
		if encoder == nil || !encoder.IsFitted() {
			return nil, ycErrors.NewNotFittedError("OneHotEncoder", "NewColumnTransformer")
		}
		if encoder.NFeatures != len(categorical) {
			return nil, ycErrors.NewDimensionError("NewColumnTransformer", len(categorical), encoder.NFeatures, 1)
		}
	}
	if len(numeric) > 0 {
		if scaler == nil || !scaler.IsFitted() {
			return nil, ycErrors.NewNotFittedError("StandardScaler", "NewColumnTransformer")
		}
		if scaler.NFeatures != len(numeric) {
			return nil, ycErrors.NewDimensionError("NewColumnTransformer", len(numeric), scaler.NFeatures, 1)
		}
	}
	return &ColumnTransformer{
		CategoricalColumns: append([]string(nil), categorical...),
		NumericColumns:     append([]string(nil), numeric...),
		Encoder:            encoder,
		Scaler:             scaler,
	}, nil
}

// NOutputs returns the width of the transformed matrix.
func (ct *ColumnTransformer) NOutputs() int {
	n := len(ct.NumericColumns)
	if ct.Encoder != nil && len(ct.CategoricalColumns) > 0 {
		n += ct.Encoder.NOutputs
	}
	return n
}

// Transform encodes and scales every row of f.
//
// An unseen category surfaces as *UnknownCategoryError with Column set.
func (ct *ColumnTransformer) Transform(f *frame.Frame) (_ mat.Matrix, err error) {
	defer ycErrors.Recover(&err, "ColumnTransformer.Transform")
	n := f.Len()
	if n == 0 {
		return nil, ycErrors.NewModelError("ColumnTransformer.Transform", "empty frame", ycErrors.ErrEmptyData)
	}

	out := mat.NewDense(n, ct.NOutputs(), nil)
	offset := 0

	if len(ct.CategoricalColumns) > 0 {
		rows := make([][]string, n)
		for i := range rows {
			rows[i] = make([]string, len(ct.CategoricalColumns))
		}
		for j, name := range ct.CategoricalColumns {
			values, err := f.Strings(name)
			if err != nil {
				return nil, ycErrors.Wrap(err, "ColumnTransformer.Transform")
			}
			for i, v := range values {
				rows[i][j] = v
			}
		}

		encoded, err := ct.Encoder.Transform(rows)
		if err != nil {
			var unknown *UnknownCategoryError
			if errors.As(err, &unknown) && unknown.Feature < len(ct.CategoricalColumns) {
				unknown.Column = ct.CategoricalColumns[unknown.Feature]
			}
			return nil, err
		}
		copyBlock(out, encoded, offset)
		offset += ct.Encoder.NOutputs
	}

	if len(ct.NumericColumns) > 0 {
		num := mat.NewDense(n, len(ct.NumericColumns), nil)
		for j, name := range ct.NumericColumns {
			values, err := f.Floats(name)
			if err != nil {
				return nil, ycErrors.Wrap(err, "ColumnTransformer.Transform")
			}
			for i, v := range values {
				num.Set(i, j, v)
			}
		}

		scaled, err := ct.Scaler.Transform(num)
		if err != nil {
			return nil, err
		}
		copyBlock(out, scaled, offset)
	}

	return out, nil
}

// GetFeatureNamesOut returns output column names prefixed like scikit-learn's
// ColumnTransformer ("cat__", "num__").
func (ct *ColumnTransformer) GetFeatureNamesOut() []string {
	var names []string
	if len(ct.CategoricalColumns) > 0 {
		for _, n := range ct.Encoder.GetFeatureNamesOut(ct.CategoricalColumns) {
			names = append(names, "cat__"+n)
		}
	}
	for _, n := range ct.NumericColumns {
		names = append(names, "num__"+n)
	}
	return names
}

func copyBlock(dst *mat.Dense, src mat.Matrix, offset int) {
	r, c := src.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(i, offset+j, src.At(i, j))
		}
	}
}
