package api

import (
	"github.com/JaimeStill/stockcast/internal/config"
	"github.com/JaimeStill/stockcast/internal/infrastructure"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Training      config.TrainingConfig
	MaxUploadSize int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Telemetry: infra.Telemetry,
		},
		Training:      cfg.Training,
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
	}
}
