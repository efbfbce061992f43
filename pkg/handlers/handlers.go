// Package handlers provides JSON response helpers shared by HTTP handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// RespondJSON writes data as a JSON body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err and writes it as {"error": "..."} with the given status code.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("handler error", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}
	RespondJSON(w, status, map[string]string{"error": err.Error()})
}

// RespondMessage writes a generic error body without exposing the underlying error.
// The full error is still logged.
func RespondMessage(w http.ResponseWriter, logger *slog.Logger, status int, msg string, err error) {
	logger.Error(msg, "status", status, "error", err)
	RespondJSON(w, status, map[string]string{"error": msg})
}

// RespondFailure writes err to the client when status is below 500. Server
// errors are logged in full and answered with the status text only.
func RespondFailure(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		RespondMessage(w, logger, status, http.StatusText(status), err)
		return
	}
	RespondError(w, logger, status, err)
}
