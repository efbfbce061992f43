package features

import "errors"

var (
	// ErrNoData indicates a pipeline stage produced an empty dataset.
	ErrNoData = errors.New("no usable sales data")
	// ErrTooFewRows indicates fewer than two rows remain, so no train/test split exists.
	ErrTooFewRows = errors.New("at least two rows are required to split")
	// ErrInvalidArtifact indicates a persisted encoder or scaler failed validation.
	ErrInvalidArtifact = errors.New("invalid feature artifact")
)
