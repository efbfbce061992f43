// Package training runs the end-to-end training pipeline and exposes the
// retrain trigger.
package training

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/stockcast/internal/evaluations"
	"github.com/JaimeStill/stockcast/internal/features"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Report is the outcome of one training run. Metrics holds every evaluated
// model; Persisted names the one written to the metrics history.
type Report struct {
	RunID      uuid.UUID            `json:"run_id"`
	Status     string               `json:"status"`
	Message    string               `json:"message"`
	Metrics    []evaluations.Metric `json:"metrics"`
	Persisted  string               `json:"persisted_metric,omitempty"`
	SaveStatus []string             `json:"save_status"`
	Stats      *features.Stats      `json:"dataset,omitempty"`
	TrainRows  int                  `json:"train_rows"`
	TestRows   int                  `json:"test_rows"`
	Stratified bool                 `json:"stratified"`
	StartedAt  time.Time            `json:"started_at"`
	Duration   string               `json:"duration"`
}

// Succeeded reports whether the run produced a usable artifact set.
func (r *Report) Succeeded() bool {
	return r.Status == StatusSuccess
}

func (r *Report) saved(what string) {
	r.SaveStatus = append(r.SaveStatus, what+": saved")
}

func (r *Report) failed(what string, err error) {
	r.SaveStatus = append(r.SaveStatus, what+": failed: "+err.Error())
}

func (r *Report) removed(what string) {
	r.SaveStatus = append(r.SaveStatus, what+": not trained, stale artifact removed")
}
