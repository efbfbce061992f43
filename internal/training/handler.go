package training

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/JaimeStill/stockcast/pkg/handlers"
	"github.com/JaimeStill/stockcast/pkg/routes"
)

// Runner executes a training run.
type Runner interface {
	Run(ctx context.Context) *Report
}

// Reloader swaps the serving artifacts after a run.
type Reloader interface {
	Reload(ctx context.Context) bool
}

// ReloadStatus reports the post-training reload.
type ReloadStatus struct {
	Status   string `json:"status"`
	Critical bool   `json:"critical"`
	Message  string `json:"message,omitempty"`
}

// TriggerResponse is the body returned by the retrain endpoint.
type TriggerResponse struct {
	Report *Report       `json:"report"`
	Reload *ReloadStatus `json:"reload,omitempty"`
}

// Handler provides the retrain trigger endpoint. Triggers are serialized
// through reload, so the registry never reads artifacts another run is writing.
type Handler struct {
	runner   Runner
	reloader Reloader
	logger   *slog.Logger

	mu sync.Mutex
}

// NewHandler creates a Handler that runs training and then reloads serving artifacts.
func NewHandler(runner Runner, reloader Reloader, logger *slog.Logger) *Handler {
	return &Handler{
		runner:   runner,
		reloader: reloader,
		logger:   logger.With("handler", "training"),
	}
}

// Routes returns the retrain route group, including the versioned alias.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/training/trigger", Handler: h.Trigger},
			{Method: "POST", Pattern: "/v1/trigger_retraining", Handler: h.Trigger},
		},
	}
}

// Trigger runs training synchronously, then reloads the serving artifacts.
// The run is detached from request cancellation.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	h.mu.Lock()
	defer h.mu.Unlock()

	report := h.runner.Run(ctx)
	if !report.Succeeded() {
		handlers.RespondJSON(w, http.StatusInternalServerError, TriggerResponse{Report: report})
		return
	}

	if !h.reloader.Reload(ctx) {
		h.logger.Error(
			"training succeeded but model reload failed, manual intervention required",
			"run_id", report.RunID,
			"critical", true,
		)
		handlers.RespondJSON(w, http.StatusInternalServerError, TriggerResponse{
			Report: report,
			Reload: &ReloadStatus{
				Status:   StatusError,
				Critical: true,
				Message:  "training succeeded but the new models could not be loaded; manual intervention required",
			},
		})
		return
	}

	handlers.RespondJSON(w, http.StatusOK, TriggerResponse{
		Report: report,
		Reload: &ReloadStatus{Status: StatusSuccess},
	})
}
