// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/stockcast/internal/config"
	"github.com/JaimeStill/stockcast/internal/infrastructure"
	"github.com/JaimeStill/stockcast/pkg/middleware"
	"github.com/JaimeStill/stockcast/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The prediction registry is loaded on lifecycle startup.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)
	domain.Start(infra.Lifecycle)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(infra.Logger))
	m.Use(middleware.Instrument(infra.Telemetry.ObserveRequest))

	return m, nil
}
