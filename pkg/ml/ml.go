// Package ml provides the regression models used for demand forecasting:
// gradient-boosted regression trees and a small feed-forward network,
// along with the held-out evaluation metrics shared by both.
package ml

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset indicates a fit was attempted with no rows.
	ErrEmptyDataset = errors.New("dataset is empty")
	// ErrShapeMismatch indicates rows and targets disagree in length, or rows disagree in width.
	ErrShapeMismatch = errors.New("dataset shape mismatch")
	// ErrInvalidModel indicates a persisted model could not be decoded into a usable state.
	ErrInvalidModel = errors.New("invalid model")
)

// Regressor maps a feature vector to a single continuous estimate.
type Regressor interface {
	Predict(x []float64) float64
}

// PredictAll runs r over every row of X.
func PredictAll(r Regressor, X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = r.Predict(x)
	}
	return out
}

func checkShape(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmptyDataset
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(X), len(y))
	}

	width := len(X[0])
	if width == 0 {
		return 0, fmt.Errorf("%w: zero-width rows", ErrShapeMismatch)
	}
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), width)
		}
	}
	return width, nil
}
