package helpers

import (
	"errors"
	"net/http"

	"devevents/internal/domain"
)

// ErrorResponse maps a service error to its HTTP status and envelope error.
// With production set, messages of unexpected errors are replaced by a generic text.
func ErrorResponse(err error, production bool) (int, *APIError) {
	var (
		verr      *domain.ValidationError
		conflict  *domain.ConflictError
		dangling  *domain.DanglingReferenceError
		upstream  *domain.UpstreamError
		connErr   *domain.ConnectionError
		bodyLimit *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, &APIError{Code: ErrCodeBadRequest, Message: "validation failed", Details: verr.Fields}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, &APIError{Code: ErrCodeNotFound, Message: "event not found"}
	case errors.As(err, &conflict):
		return http.StatusConflict, &APIError{Code: ErrCodeConflict, Message: conflict.Error()}
	case errors.As(err, &dangling):
		return http.StatusUnprocessableEntity, &APIError{Code: ErrCodeInvalidReference, Message: dangling.Error()}
	case errors.As(err, &bodyLimit):
		return http.StatusRequestEntityTooLarge, &APIError{Code: ErrCodePayloadTooLarge, Message: "request body too large"}
	case errors.As(err, &upstream) && upstream.Timeout:
		return http.StatusGatewayTimeout, &APIError{Code: ErrCodeUploadTimeout, Message: "image upload timed out"}
	case errors.As(err, &upstream):
		return http.StatusBadGateway, &APIError{Code: ErrCodeUpstream, Message: "image upload failed"}
	case errors.As(err, &connErr):
		return http.StatusServiceUnavailable, &APIError{Code: ErrCodeUnavailable, Message: "database unavailable"}
	}
	msg := err.Error()
	if production {
		msg = "internal server error"
	}
	return http.StatusInternalServerError, &APIError{Code: ErrCodeInternalError, Message: msg}
}
