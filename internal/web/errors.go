package web

// errors.go provides unified error response handling for the web layer.
//
// Handlers call respondError with whatever the core returned. The error
// is mapped via core.MapError to a user-facing message with a support
// code, the technical detail is logged with the request ID for
// correlation, and the client receives a JSON body. Inspection failures
// additionally carry the full violation list so callers can show every
// problem at once.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"mastergate/internal/core"
	"mastergate/internal/inspect"
	"mastergate/internal/registry"
	"mastergate/internal/warehouse"
)

// ErrorResponse is the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message,
// Action) fields.
type ErrorResponse struct {
	Error      string              `json:"error"`
	Message    string              `json:"message"`
	Action     string              `json:"action,omitempty"`
	Code       string              `json:"code"`
	Violations []inspect.Violation `json:"violations,omitempty"`
}

// respondError logs the technical error and writes the mapped user
// message with a status derived from the error's kind.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	status := statusFor(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}

	var inspErr *core.InspectionError
	if errors.As(err, &inspErr) {
		resp.Violations = inspErr.Violations
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	var inspErr *core.InspectionError
	var provErr *core.ProvisioningError

	switch {
	case errors.Is(err, registry.ErrAlreadyExists),
		errors.Is(err, warehouse.ErrTableExists):
		return http.StatusConflict
	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, core.ErrSchemaNotFound):
		return http.StatusNotFound
	case errors.As(err, &inspErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &provErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}

// respondBadRequest reports a malformed request body or parameter.
func respondBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Message: message,
		Code:    "REQ001",
	})
}
