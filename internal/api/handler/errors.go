// Package handler implements the gateway's HTTP endpoints.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/sharpjobs/internal/api/response"
	"github.com/kiranshivaraju/sharpjobs/internal/jobs"
	"github.com/kiranshivaraju/sharpjobs/internal/sharpapi"
	"github.com/kiranshivaraju/sharpjobs/internal/store"
	"github.com/kiranshivaraju/sharpjobs/internal/tasks"
)

// statusClientClosedRequest is the non-standard status logged when the caller
// disconnects before the gateway answers.
const statusClientClosedRequest = 499

// writeError maps service errors to the gateway's error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var terr *sharpapi.TransportError

	switch {
	case errors.Is(err, tasks.ErrUnknownTask):
		response.Error(w, http.StatusNotFound, "UNKNOWN_TASK", err.Error(), nil)
	case errors.Is(err, tasks.ErrMissingField),
		errors.Is(err, tasks.ErrUnexpectedField),
		errors.Is(err, tasks.ErrFileMismatch),
		errors.Is(err, tasks.ErrInvalidParams):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found", nil)
	case errors.Is(err, context.Canceled):
		slog.Info("request canceled by client", "method", r.Method, "path", r.URL.Path)
		response.Error(w, statusClientClosedRequest, "REQUEST_CANCELED", "Request canceled", nil)
	case errors.Is(err, sharpapi.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		response.Error(w, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT",
			"SharpAPI did not answer in time", nil)
	case errors.As(err, &terr) && terr.StatusCode != 0:
		response.Error(w, http.StatusBadGateway, "UPSTREAM_ERROR",
			"SharpAPI rejected the request", map[string]any{
				"upstream_status": terr.StatusCode,
				"body":            string(terr.Body),
			})
	case errors.Is(err, sharpapi.ErrUnreachable):
		response.Error(w, http.StatusBadGateway, "UPSTREAM_UNREACHABLE",
			"SharpAPI is not reachable", nil)
	case errors.Is(err, sharpapi.ErrDecode), errors.Is(err, jobs.ErrMissingStatusURL):
		response.Error(w, http.StatusBadGateway, "UPSTREAM_INVALID_RESPONSE",
			"SharpAPI returned an unexpected response", nil)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
