package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var explicit *statusError
	if errors.As(err, &explicit) {
		return explicit.status
	}
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case domain.IsKind(err, domain.ErrClassification):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

var errUploadTooLarge = &statusError{status: http.StatusRequestEntityTooLarge, msg: "upload exceeds size limit"}

// statusError carries an explicit status for transport-level failures that
// have no domain kind.
type statusError struct {
	status int
	msg    string
}

func (e *statusError) Error() string { return e.msg }
