package ml

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
)

// MLPConfig holds network architecture and optimizer settings.
type MLPConfig struct {
	Hidden          []int   `toml:"hidden"`
	LearningRate    float64 `toml:"learning_rate"`
	Beta1           float64 `toml:"beta1"`
	Beta2           float64 `toml:"beta2"`
	Epsilon         float64 `toml:"epsilon"`
	MaxEpochs       int     `toml:"max_epochs"`
	Patience        int     `toml:"patience"`
	ValidationSplit float64 `toml:"validation_split"`
	MinBatch        int     `toml:"min_batch"`
	MaxBatch        int     `toml:"max_batch"`
	Seed            uint64  `toml:"seed"`
}

// DefaultMLPConfig returns a 64-32 ReLU network trained with Adam at 0.001,
// early stopping after 10 stale epochs on a 20% validation tail.
func DefaultMLPConfig() MLPConfig {
	return MLPConfig{
		Hidden:          []int{64, 32},
		LearningRate:    0.001,
		Beta1:           0.9,
		Beta2:           0.999,
		Epsilon:         1e-7,
		MaxEpochs:       200,
		Patience:        10,
		ValidationSplit: 0.2,
		MinBatch:        4,
		MaxBatch:        32,
		Seed:            42,
	}
}

// WithDefaults fills unset or out-of-range fields from DefaultMLPConfig.
func (c MLPConfig) WithDefaults() MLPConfig {
	d := DefaultMLPConfig()
	if len(c.Hidden) == 0 {
		c.Hidden = d.Hidden
	}
	if c.LearningRate <= 0 {
		c.LearningRate = d.LearningRate
	}
	if c.Beta1 <= 0 || c.Beta1 >= 1 {
		c.Beta1 = d.Beta1
	}
	if c.Beta2 <= 0 || c.Beta2 >= 1 {
		c.Beta2 = d.Beta2
	}
	if c.Epsilon <= 0 {
		c.Epsilon = d.Epsilon
	}
	if c.MaxEpochs <= 0 {
		c.MaxEpochs = d.MaxEpochs
	}
	if c.Patience <= 0 {
		c.Patience = d.Patience
	}
	if c.ValidationSplit < 0 || c.ValidationSplit >= 1 {
		c.ValidationSplit = d.ValidationSplit
	}
	if c.MinBatch <= 0 {
		c.MinBatch = d.MinBatch
	}
	if c.MaxBatch < c.MinBatch {
		c.MaxBatch = max(c.MinBatch, d.MaxBatch)
	}
	return c
}

// BatchSize scales the minibatch to the number of training rows, bounded by MinBatch and MaxBatch.
func (c MLPConfig) BatchSize(rows int) int {
	c = c.WithDefaults()
	return min(c.MaxBatch, max(c.MinBatch, rows/10))
}

// Layer is a dense layer; Weights is indexed [output][input].
type Layer struct {
	Weights [][]float64 `json:"weights"`
	Biases  []float64   `json:"biases"`
}

func (l *Layer) inputs() int  { return len(l.Weights[0]) }
func (l *Layer) outputs() int { return len(l.Weights) }

func (l *Layer) forward(in, out []float64, relu bool) {
	for o, w := range l.Weights {
		z := l.Biases[o]
		for i, v := range in {
			z += w[i] * v
		}
		if relu && z < 0 {
			z = 0
		}
		out[o] = z
	}
}

func (l *Layer) clone() Layer {
	c := Layer{
		Weights: make([][]float64, len(l.Weights)),
		Biases:  append([]float64(nil), l.Biases...),
	}
	for o := range l.Weights {
		c.Weights[o] = append([]float64(nil), l.Weights[o]...)
	}
	return c
}

// MLP is a feed-forward regressor: ReLU hidden layers followed by one linear output unit.
type MLP struct {
	Layers []Layer `json:"layers"`
}

// FitStats describes how a network fit ended.
type FitStats struct {
	Epochs         int     `json:"epochs"`
	BestEpoch      int     `json:"best_epoch"`
	BestLoss       float64 `json:"best_loss"`
	ValidationRows int     `json:"validation_rows"`
	BatchSize      int     `json:"batch_size"`
}

// FitMLP trains a network on X and y with mean-squared-error loss and Adam.
// The last ValidationSplit fraction of rows is held out for early stopping;
// when that slice would be empty the training loss is monitored instead.
// The weights from the best monitored epoch are restored before returning.
func FitMLP(X [][]float64, y []float64, cfg MLPConfig) (*MLP, FitStats, error) {
	width, err := checkShape(X, y)
	if err != nil {
		return nil, FitStats{}, err
	}
	cfg = cfg.WithDefaults()
	for _, units := range cfg.Hidden {
		if units < 1 {
			return nil, FitStats{}, fmt.Errorf("%w: hidden layer sizes %v", ErrInvalidModel, cfg.Hidden)
		}
	}

	nVal := int(float64(len(X)) * cfg.ValidationSplit)
	if len(X)-nVal < 1 {
		nVal = 0
	}
	trainX, trainY := X[:len(X)-nVal], y[:len(y)-nVal]
	valX, valY := X[len(X)-nVal:], y[len(y)-nVal:]
	if nVal == 0 {
		valX, valY = trainX, trainY
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xda942042e4dd58b5))
	net := newMLP(width, cfg.Hidden, rng)
	opt := newAdam(net, cfg)
	batch := cfg.BatchSize(len(trainX))

	stats := FitStats{
		BestLoss:       math.Inf(1),
		ValidationRows: nVal,
		BatchSize:      batch,
	}
	best := net.clone()
	wait := 0

	order := make([]int, len(trainX))
	for i := range order {
		order[i] = i
	}
	grads := net.zeroLike()
	ws := net.workspace()

	for epoch := 1; epoch <= cfg.MaxEpochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < len(order); start += batch {
			end := min(start+batch, len(order))
			grads.reset()
			for _, i := range order[start:end] {
				net.backprop(trainX[i], trainY[i], grads, ws, float64(end-start))
			}
			opt.step(&net, grads)
		}

		stats.Epochs = epoch
		loss := net.mse(valX, valY, ws)
		if loss < stats.BestLoss {
			stats.BestLoss = loss
			stats.BestEpoch = epoch
			best = net.clone()
			wait = 0
			continue
		}

		wait++
		if wait >= cfg.Patience {
			break
		}
	}

	if math.IsNaN(stats.BestLoss) || math.IsInf(stats.BestLoss, 0) {
		return nil, stats, fmt.Errorf("network diverged after %d epochs", stats.Epochs)
	}

	return &best, stats, nil
}

// Predict runs a forward pass and returns the single output unit.
func (m *MLP) Predict(x []float64) float64 {
	return m.forward(x, m.workspace())
}

// Save writes the network weights as JSON.
func (m *MLP) Save(w io.Writer) error {
	return json.NewEncoder(w).Encode(m)
}

// LoadMLP decodes a network written by Save and checks layer shapes.
func LoadMLP(r io.Reader) (*MLP, error) {
	var m MLP
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *MLP) validate() error {
	if len(m.Layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidModel)
	}
	prev := -1
	for i := range m.Layers {
		l := &m.Layers[i]
		if len(l.Weights) == 0 || len(l.Weights) != len(l.Biases) {
			return fmt.Errorf("%w: layer %d has mismatched weights and biases", ErrInvalidModel, i)
		}
		for _, w := range l.Weights {
			if len(w) != l.inputs() || len(w) == 0 {
				return fmt.Errorf("%w: layer %d is ragged", ErrInvalidModel, i)
			}
		}
		if prev >= 0 && l.inputs() != prev {
			return fmt.Errorf("%w: layer %d expects %d inputs, previous emits %d", ErrInvalidModel, i, l.inputs(), prev)
		}
		prev = l.outputs()
	}
	if prev != 1 {
		return fmt.Errorf("%w: output layer has %d units", ErrInvalidModel, prev)
	}
	return nil
}

// newMLP initialises weights with Glorot-uniform draws and zero biases.
func newMLP(inputs int, hidden []int, rng *rand.Rand) MLP {
	sizes := append(append([]int{inputs}, hidden...), 1)
	m := MLP{Layers: make([]Layer, len(sizes)-1)}

	for li := range m.Layers {
		in, out := sizes[li], sizes[li+1]
		limit := math.Sqrt(6 / float64(in+out))
		l := Layer{
			Weights: make([][]float64, out),
			Biases:  make([]float64, out),
		}
		for o := range l.Weights {
			l.Weights[o] = make([]float64, in)
			for i := range l.Weights[o] {
				l.Weights[o][i] = (rng.Float64()*2 - 1) * limit
			}
		}
		m.Layers[li] = l
	}
	return m
}

func (m *MLP) clone() MLP {
	c := MLP{Layers: make([]Layer, len(m.Layers))}
	for i := range m.Layers {
		c.Layers[i] = m.Layers[i].clone()
	}
	return c
}

func (m *MLP) zeroLike() *MLP {
	z := m.clone()
	z.reset()
	return &z
}

func (m *MLP) reset() {
	for li := range m.Layers {
		l := &m.Layers[li]
		for o := range l.Weights {
			clear(l.Weights[o])
		}
		clear(l.Biases)
	}
}

// workspace allocates one activation buffer per layer.
func (m *MLP) workspace() [][]float64 {
	ws := make([][]float64, len(m.Layers))
	for i := range m.Layers {
		ws[i] = make([]float64, m.Layers[i].outputs())
	}
	return ws
}

func (m *MLP) forward(x []float64, ws [][]float64) float64 {
	in := x
	last := len(m.Layers) - 1
	for i := range m.Layers {
		m.Layers[i].forward(in, ws[i], i < last)
		in = ws[i]
	}
	return ws[last][0]
}

func (m *MLP) mse(X [][]float64, y []float64, ws [][]float64) float64 {
	var sum float64
	for i, x := range X {
		d := m.forward(x, ws) - y[i]
		sum += d * d
	}
	return sum / float64(len(X))
}

// backprop accumulates d(loss)/d(param) for one sample into grads, where the
// loss is the batch mean of squared errors over batchSize samples.
func (m *MLP) backprop(x []float64, target float64, grads *MLP, ws [][]float64, batchSize float64) {
	out := m.forward(x, ws)
	last := len(m.Layers) - 1

	delta := []float64{2 * (out - target) / batchSize}
	for li := last; li >= 0; li-- {
		l := &m.Layers[li]
		g := &grads.Layers[li]

		in := x
		if li > 0 {
			in = ws[li-1]
		}

		for o := range l.Weights {
			g.Biases[o] += delta[o]
			for i, v := range in {
				g.Weights[o][i] += delta[o] * v
			}
		}

		if li == 0 {
			break
		}

		prev := make([]float64, l.inputs())
		for i := range prev {
			if in[i] <= 0 {
				continue
			}
			var s float64
			for o := range l.Weights {
				s += l.Weights[o][i] * delta[o]
			}
			prev[i] = s
		}
		delta = prev
	}
}

type adam struct {
	cfg  MLPConfig
	m, v *MLP
	t    int
}

func newAdam(net MLP, cfg MLPConfig) *adam {
	return &adam{
		cfg: cfg,
		m:   net.zeroLike(),
		v:   net.zeroLike(),
	}
}

func (a *adam) step(net *MLP, grads *MLP) {
	a.t++
	b1, b2 := a.cfg.Beta1, a.cfg.Beta2
	c1 := 1 - math.Pow(b1, float64(a.t))
	c2 := 1 - math.Pow(b2, float64(a.t))
	lr := a.cfg.LearningRate

	update := func(p, g, m, v *float64) {
		*m = b1*(*m) + (1-b1)*(*g)
		*v = b2*(*v) + (1-b2)*(*g)*(*g)
		mHat := *m / c1
		vHat := *v / c2
		*p -= lr * mHat / (math.Sqrt(vHat) + a.cfg.Epsilon)
	}

	for li := range net.Layers {
		l, g := &net.Layers[li], &grads.Layers[li]
		ml, vl := &a.m.Layers[li], &a.v.Layers[li]
		for o := range l.Weights {
			for i := range l.Weights[o] {
				update(&l.Weights[o][i], &g.Weights[o][i], &ml.Weights[o][i], &vl.Weights[o][i])
			}
			update(&l.Biases[o], &g.Biases[o], &ml.Biases[o], &vl.Biases[o])
		}
	}
}
