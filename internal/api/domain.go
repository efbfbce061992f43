package api

import (
	"github.com/JaimeStill/stockcast/internal/artifacts"
	"github.com/JaimeStill/stockcast/internal/auth"
	"github.com/JaimeStill/stockcast/internal/evaluations"
	"github.com/JaimeStill/stockcast/internal/features"
	"github.com/JaimeStill/stockcast/internal/prediction"
	"github.com/JaimeStill/stockcast/internal/sales"
	"github.com/JaimeStill/stockcast/internal/training"
	"github.com/JaimeStill/stockcast/pkg/lifecycle"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Sales       sales.System
	Evaluations evaluations.System
	Auth        auth.System
	Artifacts   *artifacts.Store
	Training    *training.Orchestrator
	Prediction  *prediction.Registry
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	salesSystem := sales.New(
		runtime.Database,
		runtime.Telemetry,
		runtime.Logger,
	)

	evaluationsSystem := evaluations.New(runtime.Database, runtime.Logger)

	store := artifacts.New(runtime.Storage, runtime.Logger)

	pipeline := features.New(
		salesSystem,
		store,
		runtime.Training.Pipeline(),
		runtime.Logger,
	)

	orchestrator := training.New(
		pipeline,
		store,
		evaluationsSystem,
		runtime.Telemetry,
		training.Models{
			Tree:    runtime.Training.Tree,
			Network: runtime.Training.Network,
		},
		runtime.Logger,
	)

	return &Domain{
		Sales:       salesSystem,
		Evaluations: evaluationsSystem,
		Auth:        auth.New(runtime.Database, auth.DefaultCost, runtime.Logger),
		Artifacts:   store,
		Training:    orchestrator,
		Prediction:  prediction.New(store, runtime.Telemetry, runtime.Logger),
	}
}

// Start loads the serving models once storage is available. Missing
// artifacts leave predictions disabled until the first training run.
func (d *Domain) Start(lc *lifecycle.Coordinator) {
	lc.Check("models", d.Prediction)
	lc.OnStartup(func() {
		d.Prediction.Load(lc.Context())
	})
}
