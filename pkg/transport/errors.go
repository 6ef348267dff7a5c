package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

// HTTPStatusFromError maps an error to the HTTP status code protocol
// adapters should answer with.
func HTTPStatusFromError(err error) int {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	switch apiErr.Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeForbidden:
		return http.StatusForbidden
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes err as a JSON error body with the mapped
// status. Non-API errors are wrapped as opaque server errors so internals
// do not leak to clients.
func WriteErrorResponse(w http.ResponseWriter, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		apiErr = api.NewServerError("internal error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatusFromError(apiErr))
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}
