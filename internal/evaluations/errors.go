package evaluations

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/stockcast/pkg/database"
)

// ErrInvalidMetric indicates a metric without a model name.
var ErrInvalidMetric = errors.New("metric requires a model name")

// MapHTTPStatus maps evaluation errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidMetric) {
		return http.StatusBadRequest
	}
	if errors.Is(err, database.ErrNotReady) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
