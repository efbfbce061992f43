package evaluations

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/stockcast/pkg/handlers"
	"github.com/JaimeStill/stockcast/pkg/routes"
)

// Handler provides HTTP endpoints for the metrics history.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "evaluations"),
	}
}

// Routes returns the metrics route group, including the versioned alias.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/metrics", Handler: h.History},
			{Method: "GET", Pattern: "/v1/metrics", Handler: h.History},
		},
	}
}

// History returns every recorded metric, most recent first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.sys.History(r.Context())
	if err != nil {
		handlers.RespondFailure(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string][]Metric{"metrics": metrics})
}
