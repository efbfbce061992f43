package api

import (
	"net/http"

	"github.com/JaimeStill/stockcast/internal/training"
	"github.com/JaimeStill/stockcast/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	patterns := routes.Register(
		mux,
		domain.Sales.Handler(runtime.MaxUploadSize).Routes(),
		domain.Evaluations.Handler().Routes(),
		domain.Prediction.Handler().Routes(),
		domain.Auth.Handler().Routes(),
		training.NewHandler(domain.Training, domain.Prediction, runtime.Logger).Routes(),
		newArtifactHandler(runtime.Storage, runtime.Logger).routes(),
	)
	runtime.Logger.Debug("api routes registered", "count", len(patterns), "routes", patterns)
}
