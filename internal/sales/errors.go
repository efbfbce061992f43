package sales

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/stockcast/pkg/database"
)

// Domain errors for sales operations.
var (
	ErrNoValidRows       = errors.New("no valid rows after cleaning")
	ErrSheetNotFound     = errors.New("required sheet not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUnreadableFile    = errors.New("file could not be read")
	ErrFileTooLarge      = errors.New("file exceeds maximum upload size")
	ErrMissingProduct    = errors.New("product_id is required")
)

// SchemaError reports required columns absent from an uploaded table.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns in %q: %s", e.Source, strings.Join(e.Missing, ", "))
}

// MapHTTPStatus maps sales domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrNoValidRows) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrSheetNotFound) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrUnreadableFile) ||
		errors.Is(err, ErrMissingProduct) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, database.ErrNotReady) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// RejectionReason classifies a failed ingestion for metrics labels.
func RejectionReason(err error) string {
	var schemaErr *SchemaError
	switch {
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.Is(err, ErrNoValidRows):
		return "data_quality"
	case errors.Is(err, ErrSheetNotFound), errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrUnreadableFile):
		return "format"
	default:
		return "storage"
	}
}
