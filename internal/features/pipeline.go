package features

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/stockcast/internal/sales"
)

// Source supplies the full persisted sales history.
type Source interface {
	FetchAll(ctx context.Context) ([]sales.Record, error)
}

// ArtifactLoader reads the encoder and scaler persisted by the last training run.
type ArtifactLoader interface {
	LoadEncoder(ctx context.Context) (*Encoder, error)
	LoadScaler(ctx context.Context) (*Scaler, error)
}

// Config controls the train/test split.
type Config struct {
	TestFraction float64
	Seed         uint64
}

// Stats records how many rows each stage removed.
type Stats struct {
	Clean     CleanStats `json:"clean"`
	Unknown   int        `json:"unknown_products"`
	NonFinite int        `json:"non_finite"`
	Rows      int        `json:"rows"`
}

// Dataset is the scaled feature matrix with aligned labels.
// Split is nil for inference datasets.
type Dataset struct {
	Encoder *Encoder
	Scaler  *Scaler
	X       [][]float64
	Y       []float64
	Codes   []int
	Split   *Split
	Stats   Stats
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Y)
}

// Train returns the training partition.
func (d *Dataset) Train() ([][]float64, []float64) {
	return d.rows(d.Split.Train)
}

// Test returns the held-out partition.
func (d *Dataset) Test() ([][]float64, []float64) {
	return d.rows(d.Split.Test)
}

func (d *Dataset) rows(idx []int) ([][]float64, []float64) {
	x := make([][]float64, len(idx))
	y := make([]float64, len(idx))
	for i, r := range idx {
		x[i] = d.X[r]
		y[i] = d.Y[r]
	}
	return x, y
}

// Pipeline runs fetch, clean, calendar features, encoding, scaling and
// (for training) the train/test split.
type Pipeline struct {
	source    Source
	artifacts ArtifactLoader
	cfg       Config
	logger    *slog.Logger
}

// New creates a Pipeline. artifacts may be nil when only training is used.
func New(source Source, artifacts ArtifactLoader, cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = DefaultTestFraction
	}
	return &Pipeline{
		source:    source,
		artifacts: artifacts,
		cfg:       cfg,
		logger:    logger.With("system", "features"),
	}
}

// Prepare runs PrepareTraining when forTraining is set, else PrepareInference.
func (p *Pipeline) Prepare(ctx context.Context, forTraining bool) (*Dataset, error) {
	if forTraining {
		return p.PrepareTraining(ctx)
	}
	return p.PrepareInference(ctx)
}

// PrepareTraining fits a fresh encoder and scaler over the cleaned history
// and splits the result. Every empty intermediate result is an error.
// The fitted encoder and scaler are returned, not persisted.
func (p *Pipeline) PrepareTraining(ctx context.Context) (*Dataset, error) {
	records, stats, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no rows after cleaning", ErrNoData)
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ProductID
	}
	enc := FitEncoder(ids)

	rows, labels, codes := vectorize(enc, records)
	rows, labels, codes, stats.NonFinite = DropNonFinite(rows, labels, codes)
	p.logDropped("non-finite feature rows dropped", stats.NonFinite)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no finite feature rows", ErrNoData)
	}

	scaler, err := FitScaler(rows)
	if err != nil {
		return nil, err
	}

	scaled, err := scaler.TransformAll(rows)
	if err != nil {
		return nil, err
	}

	split, err := SplitRows(len(scaled), codes, p.cfg.TestFraction, p.cfg.Seed)
	if err != nil {
		return nil, err
	}
	if !split.Stratified && enc.Len() > 1 {
		p.logger.Warn("some products have fewer than two rows, split is not stratified")
	}

	stats.Rows = len(scaled)
	p.logger.Info(
		"training dataset prepared",
		"rows", stats.Rows,
		"products", enc.Len(),
		"train", len(split.Train),
		"test", len(split.Test),
		"stratified", split.Stratified,
	)

	return &Dataset{
		Encoder: enc,
		Scaler:  scaler,
		X:       scaled,
		Y:       labels,
		Codes:   codes,
		Split:   &split,
		Stats:   stats,
	}, nil
}

// PrepareInference applies the persisted encoder and scaler to the cleaned
// history. Rows of products unknown to the encoder are dropped. An empty
// history yields an empty dataset rather than an error.
func (p *Pipeline) PrepareInference(ctx context.Context) (*Dataset, error) {
	if p.artifacts == nil {
		return nil, fmt.Errorf("%w: no artifact loader configured", ErrInvalidArtifact)
	}

	records, stats, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Dataset{Stats: stats}, nil
	}

	enc, err := p.artifacts.LoadEncoder(ctx)
	if err != nil {
		return nil, fmt.Errorf("load encoder: %w", err)
	}
	scaler, err := p.artifacts.LoadScaler(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}

	known := records[:0:0]
	for _, r := range records {
		if enc.Known(r.ProductID) {
			known = append(known, r)
		}
	}
	stats.Unknown = len(records) - len(known)
	p.logDropped("rows with unknown products dropped", stats.Unknown)

	rows, labels, codes := vectorize(enc, known)
	rows, labels, codes, stats.NonFinite = DropNonFinite(rows, labels, codes)
	p.logDropped("non-finite feature rows dropped", stats.NonFinite)

	scaled, err := scaler.TransformAll(rows)
	if err != nil {
		return nil, err
	}

	stats.Rows = len(scaled)
	return &Dataset{
		Encoder: enc,
		Scaler:  scaler,
		X:       scaled,
		Y:       labels,
		Codes:   codes,
		Stats:   stats,
	}, nil
}

func (p *Pipeline) load(ctx context.Context) ([]sales.Record, Stats, error) {
	records, err := p.source.FetchAll(ctx)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("fetch sales history: %w", err)
	}

	cleaned, cs := Clean(records)
	if cs.Dropped() > 0 {
		p.logger.Info(
			"sales history cleaned",
			"input", cs.Input,
			"missing_date", cs.MissingDate,
			"duplicates", cs.Duplicates,
			"non_positive", cs.NonPositive,
		)
	}

	return cleaned, Stats{Clean: cs}, nil
}

func (p *Pipeline) logDropped(msg string, n int) {
	if n > 0 {
		p.logger.Warn(msg, "count", n)
	}
}

func vectorize(enc *Encoder, records []sales.Record) ([][]float64, []float64, []int) {
	rows := make([][]float64, len(records))
	labels := make([]float64, len(records))
	codes := make([]int, len(records))

	for i, r := range records {
		code := enc.Encode(r.ProductID)
		rows[i] = Build(code, r.SaleDate).Slice()
		labels[i] = float64(r.QuantitySold)
		codes[i] = code
	}
	return rows, labels, codes
}
