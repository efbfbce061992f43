package features

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Scaler is a per-column min-max scaler onto [0,1] over the fit-time range.
// Values outside the fit range map outside [0,1]; constant columns map to 0.
type Scaler struct {
	min []float64
	max []float64
}

// FitScaler learns per-column bounds from rows. All rows must share one width.
func FitScaler(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	width := len(rows[0])
	s := &Scaler{
		min: make([]float64, width),
		max: make([]float64, width),
	}
	copy(s.min, rows[0])
	copy(s.max, rows[0])

	for i, row := range rows[1:] {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i+1, len(row), width)
		}
		for c, v := range row {
			s.min[c] = math.Min(s.min[c], v)
			s.max[c] = math.Max(s.max[c], v)
		}
	}

	return s, nil
}

// Width returns the number of columns the scaler was fit on.
func (s *Scaler) Width() int {
	return len(s.min)
}

// Transform scales one row. The row width must equal Width.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.min) {
		return nil, fmt.Errorf("row has %d columns, scaler expects %d", len(row), len(s.min))
	}

	out := make([]float64, len(row))
	for c, v := range row {
		span := s.max[c] - s.min[c]
		if span == 0 {
			continue
		}
		out[c] = (v - s.min[c]) / span
	}
	return out, nil
}

// TransformAll scales every row.
func (s *Scaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

type scalerJSON struct {
	Columns []string  `json:"columns,omitempty"`
	Min     []float64 `json:"min"`
	Max     []float64 `json:"max"`
}

func (s *Scaler) MarshalJSON() ([]byte, error) {
	v := scalerJSON{Min: s.min, Max: s.max}
	if len(s.min) == Width {
		v.Columns = Columns[:]
	}
	return json.Marshal(v)
}

func (s *Scaler) UnmarshalJSON(data []byte) error {
	var v scalerJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v.Min) == 0 || len(v.Min) != len(v.Max) {
		return fmt.Errorf("%w: scaler bounds are empty or mismatched", ErrInvalidArtifact)
	}
	if v.Columns != nil && !slices.Equal(v.Columns, Columns[:]) {
		return fmt.Errorf("%w: scaler columns %v, want %v", ErrInvalidArtifact, v.Columns, Columns)
	}
	for c := range v.Min {
		if v.Min[c] > v.Max[c] {
			return fmt.Errorf("%w: scaler column %d has min > max", ErrInvalidArtifact, c)
		}
	}
	s.min, s.max = v.Min, v.Max
	return nil
}

// DropNonFinite removes rows containing NaN or ±Inf, keeping labels and strata aligned.
// It returns the number of rows removed.
func DropNonFinite(rows [][]float64, labels []float64, strata []int) ([][]float64, []float64, []int, int) {
	keptRows := rows[:0:0]
	keptLabels := labels[:0:0]
	keptStrata := strata[:0:0]

	for i, row := range rows {
		if !finite(row) || math.IsNaN(labels[i]) || math.IsInf(labels[i], 0) {
			continue
		}
		keptRows = append(keptRows, row)
		keptLabels = append(keptLabels, labels[i])
		keptStrata = append(keptStrata, strata[i])
	}

	return keptRows, keptLabels, keptStrata, len(rows) - len(keptRows)
}

func finite(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
