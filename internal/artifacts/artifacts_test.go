package artifacts_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/stockcast/internal/artifacts"
	"github.com/JaimeStill/stockcast/internal/features"
	"github.com/JaimeStill/stockcast/pkg/ml"
	"github.com/JaimeStill/stockcast/pkg/storage"
)

func newStore(t *testing.T) (*artifacts.Store, string) {
	t.Helper()
	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return artifacts.New(storage.NewLocal(root, logger), logger), root
}

func TestStoreRoundTrip(t *testing.T) {
	store, root := newStore(t)
	ctx := context.Background()

	enc := features.FitEncoder([]string{"A", "B"})
	scaler, err := features.FitScaler([][]float64{{0, 1, 1, 0, 2023}, {1, 12, 31, 6, 2024}})
	require.NoError(t, err)

	X := [][]float64{{0}, {0.5}, {1}, {0.25}}
	y := []float64{1, 2, 3, 1.5}
	tree, err := ml.FitGBT(X, y, ml.GBTConfig{Estimators: 5})
	require.NoError(t, err)

	require.NoError(t, store.SaveEncoder(ctx, enc))
	require.NoError(t, store.SaveScaler(ctx, scaler))
	require.NoError(t, store.SaveTree(ctx, tree))

	for _, key := range []string{artifacts.KeyEncoder, artifacts.KeyScaler, artifacts.KeyTree} {
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(key)))
		assert.NoError(t, err, key)
	}

	gotEnc, err := store.LoadEncoder(ctx)
	require.NoError(t, err)
	assert.Equal(t, enc.Classes(), gotEnc.Classes())

	gotScaler, err := store.LoadScaler(ctx)
	require.NoError(t, err)
	row := []float64{1, 6, 15, 3, 2024}
	want, _ := scaler.Transform(row)
	got, err := gotScaler.Transform(row)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	gotTree, err := store.LoadTree(ctx)
	require.NoError(t, err)
	assert.Equal(t, tree.Predict([]float64{0.5}), gotTree.Predict([]float64{0.5}))
}

func TestStoreMissing(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.LoadNetwork(context.Background())
	assert.ErrorIs(t, err, artifacts.ErrMissing)

	assert.NoError(t, store.Remove(context.Background(), artifacts.KeyNetwork))
}

func TestStoreRemove(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	net, _, err := ml.FitMLP([][]float64{{0}, {1}, {0.5}, {0.2}}, []float64{0, 1, 0.5, 0.2}, ml.MLPConfig{MaxEpochs: 2})
	require.NoError(t, err)
	require.NoError(t, store.SaveNetwork(ctx, net))

	_, err = store.LoadNetwork(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, artifacts.KeyNetwork))

	_, err = store.LoadNetwork(ctx)
	assert.ErrorIs(t, err, artifacts.ErrMissing)
}

func TestStoreCorruptArtifact(t *testing.T) {
	store, root := newStore(t)

	path := filepath.Join(root, "models", "category_encoder.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"classes":[]}`), 0o644))

	_, err := store.LoadEncoder(context.Background())
	assert.ErrorIs(t, err, features.ErrInvalidArtifact)
}
