package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/stockcast/internal/features"
	"github.com/JaimeStill/stockcast/pkg/ml"
)

const (
	EnvTrainingSeed            = "STOCKCAST_TRAINING_SEED"
	EnvTrainingTestFraction    = "STOCKCAST_TRAINING_TEST_FRACTION"
	EnvTrainingTreeEstimators  = "STOCKCAST_TRAINING_TREE_ESTIMATORS"
	EnvTrainingTreeMaxDepth    = "STOCKCAST_TRAINING_TREE_MAX_DEPTH"
	EnvTrainingTreeLearnRate   = "STOCKCAST_TRAINING_TREE_LEARNING_RATE"
	EnvTrainingNetMaxEpochs    = "STOCKCAST_TRAINING_NETWORK_MAX_EPOCHS"
	EnvTrainingNetPatience     = "STOCKCAST_TRAINING_NETWORK_PATIENCE"
	EnvTrainingNetLearningRate = "STOCKCAST_TRAINING_NETWORK_LEARNING_RATE"
)

// TrainingConfig holds the split and model hyperparameters for training runs.
// Seed is shared by the split and both models unless a model sets its own.
type TrainingConfig struct {
	Seed         uint64       `toml:"seed"`
	TestFraction float64      `toml:"test_fraction"`
	Tree         ml.GBTConfig `toml:"tree"`
	Network      ml.MLPConfig `toml:"network"`
}

// Pipeline returns the feature pipeline settings.
func (c *TrainingConfig) Pipeline() features.Config {
	return features.Config{
		TestFraction: c.TestFraction,
		Seed:         c.Seed,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *TrainingConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *TrainingConfig) Merge(overlay *TrainingConfig) {
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.TestFraction != 0 {
		c.TestFraction = overlay.TestFraction
	}

	t, o := &c.Tree, overlay.Tree
	if o.Estimators != 0 {
		t.Estimators = o.Estimators
	}
	if o.LearningRate != 0 {
		t.LearningRate = o.LearningRate
	}
	if o.MaxDepth != 0 {
		t.MaxDepth = o.MaxDepth
	}
	if o.MinSamplesLeaf != 0 {
		t.MinSamplesLeaf = o.MinSamplesLeaf
	}
	if o.Lambda != 0 {
		t.Lambda = o.Lambda
	}
	if o.Subsample != 0 {
		t.Subsample = o.Subsample
	}
	if o.Seed != 0 {
		t.Seed = o.Seed
	}

	n, on := &c.Network, overlay.Network
	if len(on.Hidden) > 0 {
		n.Hidden = on.Hidden
	}
	if on.LearningRate != 0 {
		n.LearningRate = on.LearningRate
	}
	if on.MaxEpochs != 0 {
		n.MaxEpochs = on.MaxEpochs
	}
	if on.Patience != 0 {
		n.Patience = on.Patience
	}
	if on.ValidationSplit != 0 {
		n.ValidationSplit = on.ValidationSplit
	}
	if on.MinBatch != 0 {
		n.MinBatch = on.MinBatch
	}
	if on.MaxBatch != 0 {
		n.MaxBatch = on.MaxBatch
	}
	if on.Seed != 0 {
		n.Seed = on.Seed
	}
}

func (c *TrainingConfig) loadDefaults() {
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.TestFraction == 0 {
		c.TestFraction = features.DefaultTestFraction
	}

	if c.Tree.Lambda == 0 {
		c.Tree.Lambda = ml.DefaultGBTConfig().Lambda
	}
	if c.Tree.Seed == 0 {
		c.Tree.Seed = c.Seed
	}
	c.Tree = c.Tree.WithDefaults()

	if c.Network.ValidationSplit == 0 {
		c.Network.ValidationSplit = ml.DefaultMLPConfig().ValidationSplit
	}
	if c.Network.Seed == 0 {
		c.Network.Seed = c.Seed
	}
	c.Network = c.Network.WithDefaults()
}

func (c *TrainingConfig) loadEnv() {
	if v := os.Getenv(EnvTrainingSeed); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = n
			c.Tree.Seed = n
			c.Network.Seed = n
		}
	}
	if v := os.Getenv(EnvTrainingTestFraction); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TestFraction = f
		}
	}
	if v := os.Getenv(EnvTrainingTreeEstimators); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Tree.Estimators = n
		}
	}
	if v := os.Getenv(EnvTrainingTreeMaxDepth); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Tree.MaxDepth = n
		}
	}
	if v := os.Getenv(EnvTrainingTreeLearnRate); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Tree.LearningRate = f
		}
	}
	if v := os.Getenv(EnvTrainingNetMaxEpochs); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Network.MaxEpochs = n
		}
	}
	if v := os.Getenv(EnvTrainingNetPatience); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Network.Patience = n
		}
	}
	if v := os.Getenv(EnvTrainingNetLearningRate); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Network.LearningRate = f
		}
	}
}

func (c *TrainingConfig) validate() error {
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test_fraction must be in (0, 1): %v", c.TestFraction)
	}
	if c.Tree.Estimators < 1 {
		return fmt.Errorf("tree.estimators must be positive: %d", c.Tree.Estimators)
	}
	if c.Tree.MaxDepth < 1 {
		return fmt.Errorf("tree.max_depth must be positive: %d", c.Tree.MaxDepth)
	}
	if c.Tree.LearningRate <= 0 {
		return fmt.Errorf("tree.learning_rate must be positive: %v", c.Tree.LearningRate)
	}
	if c.Network.MaxEpochs < 1 {
		return fmt.Errorf("network.max_epochs must be positive: %d", c.Network.MaxEpochs)
	}
	if c.Network.LearningRate <= 0 {
		return fmt.Errorf("network.learning_rate must be positive: %v", c.Network.LearningRate)
	}
	for _, units := range c.Network.Hidden {
		if units < 1 {
			return fmt.Errorf("network.hidden units must be positive: %v", c.Network.Hidden)
		}
	}
	return nil
}
