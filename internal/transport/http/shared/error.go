package shared

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"aibetix/internal/transport/http/shared/json"
	domainerrors "aibetix/pkg/domain-errors"
	"aibetix/pkg/platform/sentinel"
)

// ErrorResponse is the JSON body returned for all error outcomes.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError maps domain and sentinel errors onto HTTP status codes and writes
// a JSON error body.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := ""

	var domainErr *domainerrors.Error
	switch {
	case errors.As(err, &domainErr):
		status, code = mapDomainCode(domainErr.Code)
		message = domainErr.Message
	case errors.Is(err, sentinel.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
		message = err.Error()
	case errors.Is(err, sentinel.ErrConflict):
		status, code = http.StatusConflict, "conflict"
		message = err.Error()
	case errors.Is(err, sentinel.ErrInvalidState):
		status, code = http.StatusUnprocessableEntity, "invalid_state"
		message = err.Error()
	case errors.Is(err, sentinel.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "unavailable"
		message = err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "error", err)
		message = "" // do not leak internals
	}

	json.Write(w, status, ErrorResponse{Error: code, Message: message})
}

func mapDomainCode(code domainerrors.Code) (int, string) {
	switch code {
	case domainerrors.CodeNotFound:
		return http.StatusNotFound, "not_found"
	case domainerrors.CodeBadRequest:
		return http.StatusBadRequest, "bad_request"
	case domainerrors.CodeValidation:
		return http.StatusBadRequest, "validation_error"
	case domainerrors.CodeConflict:
		return http.StatusConflict, "conflict"
	case domainerrors.CodeUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case domainerrors.CodeForbidden:
		return http.StatusForbidden, "forbidden"
	case domainerrors.CodeTimeout:
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
