package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/stockcast/internal/artifacts"
	"github.com/JaimeStill/stockcast/internal/evaluations"
	"github.com/JaimeStill/stockcast/internal/features"
	"github.com/JaimeStill/stockcast/pkg/ml"
	"github.com/JaimeStill/stockcast/pkg/telemetry"
)

// Preparer produces a split training dataset.
type Preparer interface {
	PrepareTraining(ctx context.Context) (*features.Dataset, error)
}

// ArtifactWriter persists the fitted artifacts of a run.
type ArtifactWriter interface {
	SaveEncoder(ctx context.Context, enc *features.Encoder) error
	SaveScaler(ctx context.Context, sc *features.Scaler) error
	SaveTree(ctx context.Context, m *ml.GBT) error
	SaveNetwork(ctx context.Context, m *ml.MLP) error
	Remove(ctx context.Context, key string) error
}

// MetricRecorder appends to the metrics history.
type MetricRecorder interface {
	Append(ctx context.Context, m evaluations.Metric) (*evaluations.Metric, error)
}

// Models holds the hyperparameters of both regressors.
type Models struct {
	Tree    ml.GBTConfig
	Network ml.MLPConfig
}

// Orchestrator runs training end to end. Runs are serialized; a second
// caller waits for the active run to finish.
type Orchestrator struct {
	pipeline  Preparer
	artifacts ArtifactWriter
	metrics   MetricRecorder
	telemetry *telemetry.Metrics
	models    Models
	logger    *slog.Logger

	mu sync.Mutex
}

// New creates an Orchestrator.
func New(
	pipeline Preparer,
	store ArtifactWriter,
	metrics MetricRecorder,
	tel *telemetry.Metrics,
	models Models,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		pipeline:  pipeline,
		artifacts: store,
		metrics:   metrics,
		telemetry: tel,
		models:    models,
		logger:    logger.With("system", "training"),
	}
}

type fitResult struct {
	tree     *ml.GBT
	network  *ml.MLP
	treeErr  error
	netErr   error
	netStats ml.FitStats
}

// Run executes one training run and always returns a report.
func (o *Orchestrator) Run(ctx context.Context) *Report {
	o.mu.Lock()
	defer o.mu.Unlock()

	report := &Report{
		RunID:      uuid.New(),
		StartedAt:  time.Now().UTC(),
		Metrics:    []evaluations.Metric{},
		SaveStatus: []string{},
	}
	logger := o.logger.With("run_id", report.RunID)
	logger.Info("training run started")

	o.run(ctx, report, logger)

	elapsed := time.Since(report.StartedAt)
	report.Duration = elapsed.Round(time.Millisecond).String()

	o.telemetry.TrainingRuns.WithLabelValues(report.Status).Inc()
	o.telemetry.TrainingDuration.Observe(elapsed.Seconds())

	if report.Succeeded() {
		logger.Info("training run finished", "duration", report.Duration, "message", report.Message)
	} else {
		logger.Error("training run failed", "duration", report.Duration, "message", report.Message)
	}
	return report
}

func (o *Orchestrator) run(ctx context.Context, report *Report, logger *slog.Logger) {
	ds, err := o.pipeline.PrepareTraining(ctx)
	if err != nil {
		o.fail(report, fmt.Errorf("prepare dataset: %w", err))
		return
	}

	report.Stats = &ds.Stats
	report.TrainRows = len(ds.Split.Train)
	report.TestRows = len(ds.Split.Test)
	report.Stratified = ds.Split.Stratified

	xTrain, yTrain := ds.Train()
	xTest, yTest := ds.Test()

	fit := o.fit(xTrain, yTrain, logger)
	if fit.tree == nil && fit.network == nil {
		o.fail(report, fmt.Errorf("both models failed: %w", errors.Join(fit.treeErr, fit.netErr)))
		return
	}

	persist := o.evaluate(report, fit, xTest, yTest)
	if saved, err := o.metrics.Append(ctx, persist); err != nil {
		logger.Error("metric persistence failed", "error", err)
		report.failed("metrics", err)
	} else {
		report.Persisted = saved.ModelName
		report.saved("metrics")
	}

	// Preprocessing artifacts go first; models are not written against an
	// encoder or scaler from another run.
	encErr := o.artifacts.SaveEncoder(ctx, ds.Encoder)
	o.record(report, "encoder", encErr)
	scaleErr := o.artifacts.SaveScaler(ctx, ds.Scaler)
	o.record(report, "scaler", scaleErr)
	if encErr != nil || scaleErr != nil {
		o.fail(report, fmt.Errorf("persist preprocessing artifacts: %w", errors.Join(encErr, scaleErr)))
		return
	}

	treeOK := o.saveModel(ctx, report, evaluations.ModelTree, artifacts.KeyTree, fit.tree != nil, func() error {
		return o.artifacts.SaveTree(ctx, fit.tree)
	})
	netOK := o.saveModel(ctx, report, evaluations.ModelNetwork, artifacts.KeyNetwork, fit.network != nil, func() error {
		return o.artifacts.SaveNetwork(ctx, fit.network)
	})

	if !treeOK && !netOK {
		o.fail(report, errors.New("no model artifact could be persisted"))
		return
	}

	report.Status = StatusSuccess
	report.Message = fmt.Sprintf(
		"trained on %d rows, evaluated on %d rows (%s)",
		report.TrainRows, report.TestRows, summary(fit),
	)
}

// fit trains both models concurrently. A failure of one never cancels the other.
func (o *Orchestrator) fit(X [][]float64, y []float64, logger *slog.Logger) fitResult {
	var (
		res fitResult
		g   errgroup.Group
	)

	g.Go(func() error {
		start := time.Now()
		res.tree, res.treeErr = guard(func() (*ml.GBT, error) {
			return ml.FitGBT(X, y, o.models.Tree)
		})
		if res.treeErr != nil {
			logger.Error("tree model fit failed", "error", res.treeErr)
			return nil
		}
		logger.Info("tree model fitted", "trees", len(res.tree.Trees), "elapsed", time.Since(start))
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		res.network, res.netErr = guard(func() (*ml.MLP, error) {
			m, stats, err := ml.FitMLP(X, y, o.models.Network)
			res.netStats = stats
			return m, err
		})
		if res.netErr != nil {
			logger.Error("network fit failed", "error", res.netErr)
			return nil
		}
		logger.Info(
			"network fitted",
			"epochs", res.netStats.Epochs,
			"best_epoch", res.netStats.BestEpoch,
			"batch_size", res.netStats.BatchSize,
			"elapsed", time.Since(start),
		)
		return nil
	})

	g.Wait()
	return res
}

// evaluate scores each fitted model on the test split and returns the metric to persist.
func (o *Orchestrator) evaluate(report *Report, fit fitResult, X [][]float64, y []float64) evaluations.Metric {
	var preds [][]float64

	if fit.tree != nil {
		p := ml.PredictAll(fit.tree, X)
		preds = append(preds, p)
		report.Metrics = append(report.Metrics, o.score(evaluations.ModelTree, y, p))
	}
	if fit.network != nil {
		p := ml.PredictAll(fit.network, X)
		preds = append(preds, p)
		report.Metrics = append(report.Metrics, o.score(evaluations.ModelNetwork, y, p))
	}

	if len(preds) == 2 {
		hybrid := o.score(evaluations.ModelHybrid, y, ml.Average(preds...))
		report.Metrics = append(report.Metrics, hybrid)
		return hybrid
	}
	return report.Metrics[0]
}

func (o *Orchestrator) score(model string, y, pred []float64) evaluations.Metric {
	s := ml.Evaluate(y, pred)
	o.telemetry.ModelQuality.WithLabelValues(model, "mae").Set(s.MAE)
	o.telemetry.ModelQuality.WithLabelValues(model, "rmse").Set(s.RMSE)
	o.telemetry.ModelQuality.WithLabelValues(model, "r2").Set(s.R2)
	return evaluations.NewMetric(model, s)
}

// saveModel persists a fitted model or removes the stale artifact of an
// unfitted one. It reports whether a fresh artifact was written.
func (o *Orchestrator) saveModel(ctx context.Context, report *Report, name, key string, fitted bool, save func() error) bool {
	if !fitted {
		if err := o.artifacts.Remove(ctx, key); err != nil {
			o.logger.Error("stale artifact removal failed", "key", key, "error", err)
			report.failed(name, err)
			return false
		}
		report.removed(name)
		return false
	}

	err := save()
	o.record(report, name, err)
	return err == nil
}

func (o *Orchestrator) record(report *Report, what string, err error) {
	if err != nil {
		o.logger.Error("artifact save failed", "artifact", what, "error", err)
		report.failed(what, err)
		return
	}
	report.saved(what)
}

func (o *Orchestrator) fail(report *Report, err error) {
	report.Status = StatusError
	report.Message = err.Error()
}

func summary(fit fitResult) string {
	switch {
	case fit.tree != nil && fit.network != nil:
		return "gbt and mlp"
	case fit.tree != nil:
		return "gbt only"
	default:
		return "mlp only"
	}
}

// guard converts a panic inside a model fit into an error.
func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fit panicked: %v", r)
		}
	}()
	return fn()
}
