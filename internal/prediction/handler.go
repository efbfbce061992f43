package prediction

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/stockcast/pkg/handlers"
	"github.com/JaimeStill/stockcast/pkg/routes"
)

// Predictor is the serving surface used by Handler.
type Predictor interface {
	Predict(productID, date string) (int, error)
	Status() Status
}

// Request asks for a forecast. DateString is accepted as an alias for Date.
type Request struct {
	ProductID  string `json:"product_id"`
	Date       string `json:"date"`
	DateString string `json:"date_string"`
}

func (r Request) date() string {
	if r.Date != "" {
		return r.Date
	}
	return r.DateString
}

// Response carries a forecast in whole units.
type Response struct {
	Prediction int `json:"prediction"`
}

// Handler provides HTTP endpoints for forecasts.
type Handler struct {
	predictor Predictor
	logger    *slog.Logger
}

// NewHandler creates a Handler over predictor.
func NewHandler(predictor Predictor, logger *slog.Logger) *Handler {
	return &Handler{
		predictor: predictor,
		logger:    logger.With("handler", "prediction"),
	}
}

// Routes returns the prediction route group, including the versioned alias.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/predict", Handler: h.Predict},
			{Method: "POST", Pattern: "/v1/predict", Handler: h.Predict},
			{Method: "GET", Pattern: "/predict/status", Handler: h.Status},
		},
	}
}

// Predict returns the forecast for the product and date in the JSON body.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrMissingProduct)
		return
	}

	n, err := h.predictor.Predict(req.ProductID, req.date())
	if err != nil {
		status := MapHTTPStatus(err)
		if status == http.StatusNotFound {
			handlers.RespondJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		handlers.RespondFailure(w, h.logger, status, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, Response{Prediction: n})
}

// Status reports whether models are loaded and what they cover.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.predictor.Status())
}
