package controllers

import (
	"log/slog"
	"net/http"

	"devevents/internal/delivery/http/helpers"
)

// writeError maps err to the error envelope. Server-side failures are logged.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, production bool, err error) {
	status, apiErr := helpers.ErrorResponse(err, production)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "status", status, "err", err)
	}
	helpers.WriteAPIError(w, status, apiErr)
}
