package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/JaimeStill/stockcast/internal/artifacts"
	"github.com/JaimeStill/stockcast/pkg/handlers"
	"github.com/JaimeStill/stockcast/pkg/routes"
	"github.com/JaimeStill/stockcast/pkg/storage"
)

var artifactKeys = map[string]string{
	"encoder": artifacts.KeyEncoder,
	"scaler":  artifacts.KeyScaler,
	"gbt":     artifacts.KeyTree,
	"mlp":     artifacts.KeyNetwork,
}

type artifactInfo struct {
	Name   string `json:"name"`
	Key    string `json:"key"`
	Exists bool   `json:"exists"`
}

type artifactHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newArtifactHandler(store storage.System, logger *slog.Logger) *artifactHandler {
	return &artifactHandler{
		store:  store,
		logger: logger.With("handler", "artifacts"),
	}
}

func (h *artifactHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/artifacts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "GET", Pattern: "/{name}", Handler: h.download},
		},
	}
}

func (h *artifactHandler) list(w http.ResponseWriter, r *http.Request) {
	out := make([]artifactInfo, 0, len(artifactKeys))
	for _, name := range []string{"encoder", "scaler", "gbt", "mlp"} {
		key := artifactKeys[name]
		ok, err := h.store.Exists(r.Context(), key)
		if err != nil {
			handlers.RespondFailure(w, h.logger, http.StatusInternalServerError, err)
			return
		}
		out = append(out, artifactInfo{Name: name, Key: key, Exists: ok})
	}

	handlers.RespondJSON(w, http.StatusOK, map[string][]artifactInfo{"artifacts": out})
}

func (h *artifactHandler) download(w http.ResponseWriter, r *http.Request) {
	key, ok := artifactKeys[r.PathValue("name")]
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, storage.ErrNotFound)
		return
	}

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondFailure(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}
