package predictor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MinMaxScaler applies a fitted per-column affine transform, x*Scale + Min,
// the same parameters scikit-learn exports as min_ and scale_.
type MinMaxScaler struct {
	Min   []float64 `yaml:"min" validate:"required"`
	Scale []float64 `yaml:"scale" validate:"required"`
}

// IdentityScaler returns a scaler that leaves n columns unchanged.
func IdentityScaler(n int) *MinMaxScaler {
	s := &MinMaxScaler{Min: make([]float64, n), Scale: make([]float64, n)}
	for i := range s.Scale {
		s.Scale[i] = 1
	}
	return s
}

// Columns is the number of columns the scaler was fitted on.
func (s *MinMaxScaler) Columns() int {
	return len(s.Min)
}

func (s *MinMaxScaler) check() error {
	if len(s.Min) != len(s.Scale) {
		return fmt.Errorf("scaler has %d min and %d scale values", len(s.Min), len(s.Scale))
	}
	for i, v := range s.Scale {
		if v == 0 {
			return fmt.Errorf("scaler column %d has zero scale", i)
		}
	}
	return nil
}

// Transform scales every row of m into a new matrix.
func (s *MinMaxScaler) Transform(m [][]float64) ([][]float64, error) {
	out := make([][]float64, len(m))
	for i, row := range m {
		if len(row) != s.Columns() {
			return nil, fmt.Errorf("row %d has %d columns, scaler expects %d", i, len(row), s.Columns())
		}
		scaled := make([]float64, len(row))
		floats.MulTo(scaled, row, s.Scale)
		floats.Add(scaled, s.Min)
		out[i] = scaled
	}
	return out, nil
}

// InverseColumn maps values of a single-target scaler back to physical units.
func (s *MinMaxScaler) InverseColumn(values []float64) ([]float64, error) {
	if s.Columns() != 1 {
		return nil, fmt.Errorf("output scaler must have 1 column, has %d", s.Columns())
	}
	out := make([]float64, len(values))
	copy(out, values)
	floats.AddConst(-s.Min[0], out)
	floats.Scale(1/s.Scale[0], out)
	return out, nil
}

// LabelEncoder maps class indexes back to condition labels.
type LabelEncoder struct {
	Classes []string
}

// Decode returns the label of the most probable class.
func (e LabelEncoder) Decode(probs []float64) (string, error) {
	if len(e.Classes) == 0 {
		return "", fmt.Errorf("label encoder has no classes")
	}
	if len(probs) != len(e.Classes) {
		return "", fmt.Errorf("classifier returned %d probabilities for %d classes", len(probs), len(e.Classes))
	}
	return e.Classes[floats.MaxIdx(probs)], nil
}
