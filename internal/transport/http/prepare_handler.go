package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "energyforecast/internal/errors"
	"energyforecast/internal/services"
)

// PrepareHandler exposes dataset preparation over HTTP
type PrepareHandler struct {
	service      PrepareServiceInterface
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPrepareHandler creates a new prepare handler
func NewPrepareHandler(service PrepareServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PrepareHandler {
	return &PrepareHandler{
		service:      service,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logger.With(slog.String("component", "prepare_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the preparation routes
func (h *PrepareHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/prepare", h.Prepare)
	r.Get("/datasets", h.ListDatasets)

	return r
}

// DatasetsResponse lists the datasets available for preparation
type DatasetsResponse struct {
	Datasets []string `json:"datasets"`
	Count    int      `json:"count"`
}

// Prepare handles POST /api/v1/prepare
func (h *PrepareHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	var req services.PrepareRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if err := h.validate.StructCtx(r.Context(), req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "prepare requested",
		slog.String("dataset", req.Dataset),
		slog.String("mode", req.Mode),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	report, err := h.service.Prepare(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, report)
}

// ListDatasets handles GET /api/v1/datasets
func (h *PrepareHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.Datasets(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	render.JSON(w, r, DatasetsResponse{Datasets: names, Count: len(names)})
}
