package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"energyforecast/internal/config"
	"energyforecast/internal/dataprocessing"
	"energyforecast/internal/evaluate"
	"energyforecast/internal/split"
)

// Problem types following RFC 7807
const (
	TypeValidation       = "/errors/validation"
	TypeNotFound         = "/errors/not-found"
	TypeMethodNotAllowed = "/errors/method-not-allowed"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeServiceDown      = "/errors/service-unavailable"
	TypeTimeout          = "/errors/timeout"
	TypePayloadTooLarge  = "/errors/payload-too-large"
)

// Domain problem types
const (
	TypeFieldNotFound    = "/errors/split/field-not-found"
	TypeInvalidParameter = "/errors/split/invalid-parameter"
	TypeEmptyWindow      = "/errors/split/empty-window"
	TypeNoFolds          = "/errors/split/no-folds"
	TypeDatasetNotFound  = "/errors/data/not-found"
	TypeDatasetInvalid   = "/errors/data/invalid"
)

// ErrorHandler renders errors as RFC 7807 problems
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts err to a problem and writes it
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", stackTrace())
	}
	h.write(w, r, problem)
}

// ErrorToProblem maps err onto a problem. Split and dataset failures keep their
// structured context as extensions.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	path := r.URL.Path

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", path)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	var fieldErr *split.FieldNotFoundError
	var paramErr *split.InvalidParameterError
	var windowErr *split.EmptyWindowError
	var foldsErr *split.NoFoldsProducedError
	var validationErrs validator.ValidationErrors
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &fieldErr):
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeFieldNotFound, "Field Not Found", err.Error(), path).
			WithExtension("field", fieldErr.Field).
			WithExtension("available_fields", fieldErr.Available)

	case errors.As(err, &paramErr):
		return NewProblemDetails(http.StatusBadRequest, TypeInvalidParameter, "Invalid Parameter", err.Error(), path).
			WithExtension("parameter", paramErr.Param).
			WithExtension("reason", paramErr.Reason)

	case errors.As(err, &windowErr):
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeEmptyWindow, "Empty Window", err.Error(), path).
			WithExtension("window", windowErr.Window).
			WithExtension("rows", windowErr.Rows)

	case errors.As(err, &foldsErr):
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeNoFolds, "No Folds Produced", err.Error(), path).
			WithExtension("rows", foldsErr.Rows).
			WithExtension("train_size", foldsErr.TrainSize).
			WithExtension("val_size", foldsErr.ValSize)

	case errors.As(err, &validationErrs):
		fields := make([]ValidationError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			})
		}
		return NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed",
			"Request validation failed", path).WithExtension("errors", fields)

	case errors.As(err, &maxBytesErr):
		return NewProblemDetails(http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large",
			fmt.Sprintf("Request body exceeds %d bytes", maxBytesErr.Limit), path)

	case errors.Is(err, config.ErrDatasetNotFound), errors.Is(err, os.ErrNotExist):
		return NewProblemDetails(http.StatusNotFound, TypeDatasetNotFound, "Dataset Not Found", err.Error(), path)

	case errors.Is(err, config.ErrInvalidDatasetName):
		return NewProblemDetails(http.StatusBadRequest, TypeDatasetInvalid, "Invalid Dataset Name", err.Error(), path)

	case errors.Is(err, dataprocessing.ErrUnsupportedFormat),
		errors.Is(err, dataprocessing.ErrNoData),
		errors.Is(err, evaluate.ErrEmptyInput):
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeDatasetInvalid, "Unprocessable Dataset", err.Error(), path)
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred while processing your request", path)
}

var problemTypeByCode = map[string]string{
	CodeInvalidRequest:    TypeValidation,
	CodeValidationFailed:  TypeValidation,
	CodeNotFound:          TypeNotFound,
	CodePayloadTooLarge:   TypePayloadTooLarge,
	CodeRateLimitExceeded: TypeRateLimit,
	CodeUnavailable:       TypeServiceDown,
}

func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType, ok := problemTypeByCode[apiErr.ErrorCode]
	if !ok {
		problemType = TypeInternal
	}

	p := NewProblemDetails(apiErr.StatusCode, problemType, http.StatusText(apiErr.StatusCode), apiErr.Message, r.URL.Path).
		WithExtension("error_code", apiErr.ErrorCode)
	if apiErr.Details != nil {
		p.WithExtension("details", apiErr.Details)
	}
	return p
}

// HandlePanic logs a recovered panic with its stack and responds 500
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered any) {
	stack := stackTrace()
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", stack),
	)

	p := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred", r.URL.Path)
	if h.includeStack {
		p.WithExtension("panic", fmt.Sprint(recovered)).WithExtension("stack", stack)
	}
	h.write(w, r, p)
}

// NotFound responds with a 404 problem
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"The requested resource was not found", r.URL.Path))
}

// MethodNotAllowed responds with a 405 problem
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusMethodNotAllowed, TypeMethodNotAllowed, "Method Not Allowed",
		fmt.Sprintf("%s is not allowed on %s", r.Method, r.URL.Path), r.URL.Path))
}

// write tags p with the request id and renders it
func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, p *ProblemDetails) {
	p.WithExtension("trace_id", middleware.GetReqID(r.Context()))
	if err := render.Render(w, r, p); err != nil {
		h.logger.ErrorContext(r.Context(), "render problem", slog.String("error", err.Error()))
	}
}

func stackTrace() string {
	buf := make([]byte, 8<<10)
	return string(buf[:runtime.Stack(buf, false)])
}
