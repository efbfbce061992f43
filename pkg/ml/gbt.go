package ml

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// GBTConfig holds gradient boosting hyperparameters.
type GBTConfig struct {
	Estimators     int     `toml:"estimators"`
	LearningRate   float64 `toml:"learning_rate"`
	MaxDepth       int     `toml:"max_depth"`
	MinSamplesLeaf int     `toml:"min_samples_leaf"`
	Lambda         float64 `toml:"lambda"`
	Subsample      float64 `toml:"subsample"`
	Seed           uint64  `toml:"seed"`
}

// DefaultGBTConfig returns 100 depth-5 trees at learning rate 0.1 with seed 42.
func DefaultGBTConfig() GBTConfig {
	return GBTConfig{
		Estimators:     100,
		LearningRate:   0.1,
		MaxDepth:       5,
		MinSamplesLeaf: 1,
		Lambda:         1,
		Subsample:      1,
		Seed:           42,
	}
}

// WithDefaults fills unset or out-of-range fields from DefaultGBTConfig.
// Seed and a zero Lambda are kept as given.
func (c GBTConfig) WithDefaults() GBTConfig {
	d := DefaultGBTConfig()
	if c.Estimators <= 0 {
		c.Estimators = d.Estimators
	}
	if c.LearningRate <= 0 {
		c.LearningRate = d.LearningRate
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.MinSamplesLeaf <= 0 {
		c.MinSamplesLeaf = d.MinSamplesLeaf
	}
	if c.Lambda < 0 {
		c.Lambda = d.Lambda
	}
	if c.Subsample <= 0 || c.Subsample > 1 {
		c.Subsample = d.Subsample
	}
	return c
}

type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

type regressionTree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t *regressionTree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// GBT is a squared-error gradient-boosted ensemble of regression trees.
type GBT struct {
	Features     int              `json:"features"`
	BaseScore    float64          `json:"base_score"`
	LearningRate float64          `json:"learning_rate"`
	Trees        []regressionTree `json:"trees"`
}

// FitGBT fits a boosted tree ensemble to X and y. Each round fits a tree to the
// current residuals and adds it scaled by the learning rate.
func FitGBT(X [][]float64, y []float64, cfg GBTConfig) (*GBT, error) {
	width, err := checkShape(X, y)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	n := len(X)
	model := &GBT{
		Features:     width,
		BaseScore:    stat.Mean(y, nil),
		LearningRate: cfg.LearningRate,
		Trees:        make([]regressionTree, 0, cfg.Estimators),
	}

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = model.BaseScore
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	residual := make([]float64, n)

	for range cfg.Estimators {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}

		b := &treeBuilder{X: X, grad: residual, width: width, cfg: cfg}
		b.grow(sampleRows(rng, n, cfg.Subsample), 0)
		tree := regressionTree{Nodes: b.nodes}

		for i, x := range X {
			pred[i] += cfg.LearningRate * tree.predict(x)
		}
		model.Trees = append(model.Trees, tree)
	}

	return model, nil
}

// Predict returns the base score plus the scaled sum of every tree's output.
func (m *GBT) Predict(x []float64) float64 {
	out := m.BaseScore
	for i := range m.Trees {
		out += m.LearningRate * m.Trees[i].predict(x)
	}
	return out
}

// Save writes the model as JSON.
func (m *GBT) Save(w io.Writer) error {
	return json.NewEncoder(w).Encode(m)
}

// LoadGBT decodes a model written by Save and checks its tree structure.
func LoadGBT(r io.Reader) (*GBT, error) {
	var m GBT
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *GBT) validate() error {
	if m.Features <= 0 {
		return fmt.Errorf("%w: no features", ErrInvalidModel)
	}
	for t, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidModel, t)
		}
		for i, n := range tree.Nodes {
			if n.Left < 0 {
				continue
			}
			if n.Feature < 0 || n.Feature >= m.Features ||
				n.Left <= i || n.Left >= len(tree.Nodes) ||
				n.Right <= i || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("%w: tree %d node %d is malformed", ErrInvalidModel, t, i)
			}
		}
	}
	return nil
}

func sampleRows(rng *rand.Rand, n int, fraction float64) []int {
	if fraction >= 1 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	k := max(1, int(float64(n)*fraction))
	idx := rng.Perm(n)[:k]
	slices.Sort(idx)
	return idx
}

type treeBuilder struct {
	X     [][]float64
	grad  []float64
	width int
	cfg   GBTConfig
	nodes []treeNode
}

// grow appends a node for idx and recursively splits it, returning the node's index.
// Leaf values are the regularised mean residual sum/(count+lambda).
func (b *treeBuilder) grow(idx []int, depth int) int {
	var sum float64
	for _, i := range idx {
		sum += b.grad[i]
	}

	node := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{
		Left:  -1,
		Right: -1,
		Value: sum / (float64(len(idx)) + b.cfg.Lambda),
	})

	if depth >= b.cfg.MaxDepth || len(idx) < 2*b.cfg.MinSamplesLeaf {
		return node
	}

	feature, threshold, ok := b.bestSplit(idx, sum)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)

	b.nodes[node].Feature = feature
	b.nodes[node].Threshold = threshold
	b.nodes[node].Left = l
	b.nodes[node].Right = r
	return node
}

func (b *treeBuilder) bestSplit(idx []int, sum float64) (int, float64, bool) {
	n := len(idx)
	lambda := b.cfg.Lambda
	parent := sum * sum / (float64(n) + lambda)

	var (
		bestGain      float64
		bestFeature   int
		bestThreshold float64
		found         bool
	)

	sorted := make([]int, n)
	for f := range b.width {
		copy(sorted, idx)
		slices.SortStableFunc(sorted, func(a, c int) int {
			return cmp.Compare(b.X[a][f], b.X[c][f])
		})

		var left float64
		for k := 0; k < n-1; k++ {
			left += b.grad[sorted[k]]

			nl, nr := k+1, n-k-1
			if nl < b.cfg.MinSamplesLeaf || nr < b.cfg.MinSamplesLeaf {
				continue
			}

			lo, hi := b.X[sorted[k]][f], b.X[sorted[k+1]][f]
			if lo == hi {
				continue
			}

			right := sum - left
			gain := left*left/(float64(nl)+lambda) + right*right/(float64(nr)+lambda) - parent
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}
