// Package prediction serves demand forecasts from an immutable snapshot of
// the persisted encoder, scaler and regressors.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JaimeStill/stockcast/internal/artifacts"
	"github.com/JaimeStill/stockcast/internal/features"
	"github.com/JaimeStill/stockcast/internal/sales"
	"github.com/JaimeStill/stockcast/pkg/ml"
	"github.com/JaimeStill/stockcast/pkg/telemetry"
)

// Model names reported in Status.
const (
	ModelTree    = "gbt"
	ModelNetwork = "mlp"
)

// Loader reads the persisted serving artifacts.
type Loader interface {
	LoadEncoder(ctx context.Context) (*features.Encoder, error)
	LoadScaler(ctx context.Context) (*features.Scaler, error)
	LoadTree(ctx context.Context) (*ml.GBT, error)
	LoadNetwork(ctx context.Context) (*ml.MLP, error)
}

// Snapshot is one consistent set of serving artifacts. It is never mutated
// after construction. At least one of Tree and Network is non-nil.
type Snapshot struct {
	Encoder  *features.Encoder
	Scaler   *features.Scaler
	Tree     ml.Regressor
	Network  ml.Regressor
	LoadedAt time.Time
}

// Models lists the names of the regressors present in the snapshot.
func (s *Snapshot) Models() []string {
	var names []string
	if s.Tree != nil {
		names = append(names, ModelTree)
	}
	if s.Network != nil {
		names = append(names, ModelNetwork)
	}
	return names
}

func (s *Snapshot) regressors() []ml.Regressor {
	var out []ml.Regressor
	if s.Tree != nil {
		out = append(out, s.Tree)
	}
	if s.Network != nil {
		out = append(out, s.Network)
	}
	return out
}

// Status describes the registry's current serving state.
type Status struct {
	Ready    bool       `json:"ready"`
	Stale    bool       `json:"stale"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	Models   []string   `json:"models"`
	Products []string   `json:"products"`
}

// Registry holds the active snapshot. Readers never observe a partially
// loaded set: a load builds a complete snapshot and swaps the pointer.
type Registry struct {
	loader    Loader
	telemetry *telemetry.Metrics
	logger    *slog.Logger

	active atomic.Pointer[Snapshot]
	stale  atomic.Bool
	mu     sync.Mutex
}

// New creates an empty Registry. Call Load before serving predictions.
func New(loader Loader, tel *telemetry.Metrics, logger *slog.Logger) *Registry {
	return &Registry{
		loader:    loader,
		telemetry: tel,
		logger:    logger.With("system", "prediction"),
	}
}

// Handler creates the prediction HTTP handler.
func (r *Registry) Handler() *Handler {
	return NewHandler(r, r.logger)
}

// Load reads every artifact and installs them as the active snapshot. It
// returns false when the encoder, the scaler or both models are missing or
// unreadable; the previous snapshot, if any, keeps serving and is flagged
// stale. Concurrent loads are serialized.
func (r *Registry) Load(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.build(ctx)
	if err != nil {
		r.telemetry.ModelReloads.WithLabelValues("failure").Inc()
		if r.active.Load() != nil {
			r.stale.Store(true)
			r.logger.Error("model reload failed, previous models remain active", "error", err)
		} else {
			r.logger.Warn("models unavailable, predictions disabled", "error", err)
		}
		return false
	}

	r.active.Store(snap)
	r.stale.Store(false)
	r.telemetry.ModelReloads.WithLabelValues("success").Inc()
	r.logger.Info(
		"models loaded",
		"models", snap.Models(),
		"products", snap.Encoder.Len(),
	)
	return true
}

// Reload is Load under the name used after a training run.
func (r *Registry) Reload(ctx context.Context) bool {
	return r.Load(ctx)
}

// Ready reports whether a snapshot is active.
func (r *Registry) Ready() bool {
	return r.active.Load() != nil
}

// Snapshot returns the active snapshot, or nil.
func (r *Registry) Snapshot() *Snapshot {
	return r.active.Load()
}

// Products returns the product ids known to the active encoder.
func (r *Registry) Products() []string {
	snap := r.active.Load()
	if snap == nil {
		return []string{}
	}
	return snap.Encoder.Classes()
}

// Status reports readiness, staleness and the contents of the active snapshot.
func (r *Registry) Status() Status {
	snap := r.active.Load()
	if snap == nil {
		return Status{Models: []string{}, Products: []string{}}
	}
	loaded := snap.LoadedAt
	return Status{
		Ready:    true,
		Stale:    r.stale.Load(),
		LoadedAt: &loaded,
		Models:   snap.Models(),
		Products: snap.Encoder.Classes(),
	}
}

// Predict returns the forecast units for productID on date (YYYY-MM-DD).
// The estimate is the mean of the loaded models, clamped at zero and rounded up.
func (r *Registry) Predict(productID, date string) (int, error) {
	n, err := r.predict(productID, date)
	r.telemetry.Predictions.WithLabelValues(outcome(err)).Inc()
	return n, err
}

func (r *Registry) predict(productID, date string) (int, error) {
	snap := r.active.Load()
	if snap == nil {
		return 0, ErrNotReady
	}

	// An unknown product is reported whatever the date.
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return 0, ErrMissingProduct
	}
	if !snap.Encoder.Known(productID) {
		r.logger.Info("prediction for unknown product", "product_id", productID)
		return 0, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}

	day, err := ParseDate(date)
	if err != nil {
		return 0, err
	}

	vec := features.Build(snap.Encoder.Encode(productID), day)
	x, err := snap.Scaler.Transform(vec.Slice())
	if err != nil {
		return 0, fmt.Errorf("scale features: %w", err)
	}

	var sum float64
	models := snap.regressors()
	for _, m := range models {
		sum += m.Predict(x)
	}
	estimate := sum / float64(len(models))
	if math.IsNaN(estimate) || math.IsInf(estimate, 0) {
		return 0, errors.New("model produced a non-finite estimate")
	}

	return int(math.Ceil(max(0, estimate))), nil
}

// ParseDate parses a calendar date in YYYY-MM-DD form. A full RFC 3339
// timestamp is accepted and truncated to its date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(sales.DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (r *Registry) build(ctx context.Context) (*Snapshot, error) {
	enc, err := r.loader.LoadEncoder(ctx)
	if err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}
	sc, err := r.loader.LoadScaler(ctx)
	if err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}
	if sc.Width() != features.Width {
		return nil, fmt.Errorf("scaler: width %d, want %d", sc.Width(), features.Width)
	}

	snap := &Snapshot{Encoder: enc, Scaler: sc, LoadedAt: time.Now().UTC()}

	tree, treeErr := r.loader.LoadTree(ctx)
	if treeErr == nil {
		snap.Tree = tree
	} else if !errors.Is(treeErr, artifacts.ErrMissing) {
		r.logger.Warn("tree model unreadable", "error", treeErr)
	}

	network, netErr := r.loader.LoadNetwork(ctx)
	if netErr == nil {
		snap.Network = network
	} else if !errors.Is(netErr, artifacts.ErrMissing) {
		r.logger.Warn("network model unreadable", "error", netErr)
	}

	if snap.Tree == nil && snap.Network == nil {
		return nil, fmt.Errorf("no model available: %w", errors.Join(treeErr, netErr))
	}
	return snap, nil
}
