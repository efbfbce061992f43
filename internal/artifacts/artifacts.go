// Package artifacts persists the fitted encoder, scaler and both regressors
// under fixed, well-known storage keys.
package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/JaimeStill/stockcast/internal/features"
	"github.com/JaimeStill/stockcast/pkg/ml"
	"github.com/JaimeStill/stockcast/pkg/storage"
)

// Well-known artifact keys.
const (
	KeyEncoder = "models/category_encoder.json"
	KeyScaler  = "models/feature_scaler.json"
	KeyTree    = "models/gbt_model.json"
	KeyNetwork = "models/mlp_model.json"
)

const contentType = "application/json"

// ErrMissing indicates an artifact has never been saved or was removed.
var ErrMissing = errors.New("artifact not found")

// Store reads and writes artifacts through a storage system.
type Store struct {
	blobs  storage.System
	logger *slog.Logger
}

// New creates a Store over blobs.
func New(blobs storage.System, logger *slog.Logger) *Store {
	return &Store{
		blobs:  blobs,
		logger: logger.With("system", "artifacts"),
	}
}

// SaveEncoder persists the category encoder.
func (s *Store) SaveEncoder(ctx context.Context, enc *features.Encoder) error {
	return s.saveJSON(ctx, KeyEncoder, enc)
}

// SaveScaler persists the feature scaler.
func (s *Store) SaveScaler(ctx context.Context, sc *features.Scaler) error {
	return s.saveJSON(ctx, KeyScaler, sc)
}

// SaveTree persists the gradient-boosted model.
func (s *Store) SaveTree(ctx context.Context, m *ml.GBT) error {
	return s.save(ctx, KeyTree, m.Save)
}

// SaveNetwork persists the feed-forward network.
func (s *Store) SaveNetwork(ctx context.Context, m *ml.MLP) error {
	return s.save(ctx, KeyNetwork, m.Save)
}

// LoadEncoder reads the category encoder.
func (s *Store) LoadEncoder(ctx context.Context) (*features.Encoder, error) {
	var enc features.Encoder
	if err := s.loadJSON(ctx, KeyEncoder, &enc); err != nil {
		return nil, err
	}
	return &enc, nil
}

// LoadScaler reads the feature scaler.
func (s *Store) LoadScaler(ctx context.Context) (*features.Scaler, error) {
	var sc features.Scaler
	if err := s.loadJSON(ctx, KeyScaler, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadTree reads the gradient-boosted model.
func (s *Store) LoadTree(ctx context.Context) (*ml.GBT, error) {
	return load(ctx, s, KeyTree, ml.LoadGBT)
}

// LoadNetwork reads the feed-forward network.
func (s *Store) LoadNetwork(ctx context.Context) (*ml.MLP, error) {
	return load(ctx, s, KeyNetwork, ml.LoadMLP)
}

// Remove deletes the artifact at key. A missing artifact is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	err := s.blobs.Delete(ctx, key)
	if err == nil {
		s.logger.Info("stale artifact removed", "key", key)
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("remove %s: %w", key, err)
}

func (s *Store) save(ctx context.Context, key string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.blobs.Upload(ctx, key, &buf, contentType); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (s *Store) saveJSON(ctx context.Context, key string, v any) error {
	return s.save(ctx, key, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(v)
	})
}

func (s *Store) loadJSON(ctx context.Context, key string, v any) error {
	_, err := load(ctx, s, key, func(r io.Reader) (struct{}, error) {
		return struct{}{}, json.NewDecoder(r).Decode(v)
	})
	return err
}

func load[T any](ctx context.Context, s *Store, key string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T

	rc, err := s.blobs.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return zero, fmt.Errorf("%w: %s", ErrMissing, key)
		}
		return zero, fmt.Errorf("download %s: %w", key, err)
	}
	defer rc.Close()

	v, err := decode(rc)
	if err != nil {
		return zero, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}
