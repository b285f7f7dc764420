// Package handler provides HTTP request handlers for TableSync.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yndnr/tablesync-go/internal/core/domain"
	"github.com/yndnr/tablesync-go/internal/core/service"
	"github.com/yndnr/tablesync-go/internal/storage"
	"github.com/yndnr/tablesync-go/internal/telemetry/logger"
	"github.com/yndnr/tablesync-go/internal/telemetry/metric"
)

// Handler is the main HTTP handler that routes requests to appropriate
// handlers.
//
// @design DS-0401
type Handler struct {
	registry *service.Registry
	store    *storage.Engine
	metrics  *metric.Registry
	logger   logger.Logger
	mux      *http.ServeMux
}

// New creates a new Handler.
func New(registry *service.Registry, store *storage.Engine, metrics *metric.Registry, log logger.Logger) *Handler {
	h := &Handler{
		registry: registry,
		store:    store,
		metrics:  metrics,
		logger:   log,
		mux:      http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	// Health endpoints
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	// Session endpoints
	h.mux.HandleFunc("GET /sessions", h.handleListSessions)
	h.mux.HandleFunc("POST /sessions", h.handleCreateSession)
	h.mux.HandleFunc("GET /sessions/{id}", h.handleGetSession)
	h.mux.HandleFunc("DELETE /sessions/{id}", h.handleRemoveSession)

	// State endpoints
	h.mux.HandleFunc("POST /sessions/{id}/snapshot", h.handlePublishSnapshot)
	h.mux.HandleFunc("GET /sessions/{id}/snapshot", h.handleGetSnapshot)
	h.mux.HandleFunc("POST /sessions/{id}/sync", h.handleSync)
	h.mux.HandleFunc("POST /sessions/{id}/recover", h.handleRecover)
	h.mux.HandleFunc("POST /sessions/{id}/actions", h.handleSubmitActions)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		status := errorCodeToHTTPStatus(code)
		h.writeError(w, r, status, code, err.Error(), nil)
		return
	}

	h.logger.Error("internal error",
		"request_id", logger.RequestIDFromContext(r.Context()), "error", err)
	h.writeError(w, r, http.StatusInternalServerError, "TS-SYS-5000", "internal server error", nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"), strings.HasSuffix(code, "-4091"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "TS-ARG-"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(code, "TS-SYS-5"):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
