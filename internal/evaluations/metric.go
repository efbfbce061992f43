// Package evaluations records model-quality metrics for every training run
// and serves the metrics history.
package evaluations

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/stockcast/pkg/ml"
)

// Model names used in metric rows.
const (
	ModelTree    = "gbt"
	ModelNetwork = "mlp"
	ModelHybrid  = "hybrid"
)

// Metric is one held-out evaluation of a model. Rows are append-only.
type Metric struct {
	ID         uuid.UUID `json:"id"`
	ModelName  string    `json:"model_name"`
	MAE        float64   `json:"mae"`
	RMSE       float64   `json:"rmse"`
	R2         float64   `json:"r2"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewMetric builds an unsaved metric for model from scores.
func NewMetric(model string, s ml.Scores) Metric {
	return Metric{
		ModelName: model,
		MAE:       s.MAE,
		RMSE:      s.RMSE,
		R2:        s.R2,
	}
}
