package prediction

import (
	"errors"
	"net/http"
)

// Domain errors for prediction operations.
var (
	ErrNotReady       = errors.New("models are not loaded")
	ErrInvalidDate    = errors.New("date must be YYYY-MM-DD")
	ErrUnknownProduct = errors.New("product not seen during training")
	ErrMissingProduct = errors.New("product_id is required")
)

// MapHTTPStatus maps prediction errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownProduct):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrMissingProduct):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// outcome labels a prediction result for the predictions counter.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnknownProduct):
		return "unknown_product"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrMissingProduct):
		return "invalid_request"
	case errors.Is(err, ErrNotReady):
		return "not_ready"
	default:
		return "error"
	}
}
