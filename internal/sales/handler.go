package sales

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/stockcast/pkg/formatting"
	"github.com/JaimeStill/stockcast/pkg/handlers"
	"github.com/JaimeStill/stockcast/pkg/routes"
)

// Handler provides HTTP endpoints for sales-history operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// HistoryRequest selects a product for the history endpoint.
type HistoryRequest struct {
	ProductID string `json:"product_id"`
}

// NewHandler creates a Handler with the given system, logger, and upload size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "sales"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for sales endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/sales",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/upload", Handler: h.Upload},
			{Method: "POST", Pattern: "/history", Handler: h.History},
			{Method: "GET", Pattern: "/history/{product_id}", Handler: h.FindHistory},
			{Method: "GET", Pattern: "/products", Handler: h.Products},
		},
	}
}

// Upload validates and persists a multipart "file" field holding CSV or an
// xlsx workbook with a "Detalle" sheet.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handlers.RespondError(
				w, h.logger,
				http.StatusRequestEntityTooLarge,
				fmt.Errorf("%w of %s", ErrFileTooLarge, formatting.FormatBytes(maxErr.Limit, 0)),
			)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrUnreadableFile, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrUnreadableFile)
		return
	}
	defer file.Close()

	raw, err := ReadFile(header.Filename, file, DetailSheet)
	if err != nil {
		h.sys.Reject(header.Filename, err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Ingest(r.Context(), IngestCommand{
		Table:   raw,
		Source:  header.Filename,
		Channel: ChannelUpload,
	})
	if err != nil {
		handlers.RespondFailure(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// History returns the sales of the product named in the JSON body.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	var req HistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrMissingProduct)
		return
	}
	h.respondHistory(w, r, req.ProductID)
}

// FindHistory returns the sales of the product named in the path.
func (h *Handler) FindHistory(w http.ResponseWriter, r *http.Request) {
	h.respondHistory(w, r, r.PathValue("product_id"))
}

// Products returns the distinct product ids with stored sales.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.sys.Products(r.Context())
	if err != nil {
		handlers.RespondFailure(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string][]string{"products": products})
}

func (h *Handler) respondHistory(w http.ResponseWriter, r *http.Request, productID string) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrMissingProduct)
		return
	}

	points, err := h.sys.History(r.Context(), productID)
	if err != nil {
		handlers.RespondFailure(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"product_id": productID,
		"history":    points,
	})
}
