// Package handlers contains helpers shared by the HTTP handlers.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/bedrockrag/kb"
	"github.com/a-h/respond"
)

// StatusCode returns the HTTP status code for an error returned by the kb package.
func StatusCode(err error) int {
	var rve *kb.RequestValidationError
	if errors.As(err, &rve) {
		return http.StatusBadRequest
	}
	var se *kb.ServiceError
	if errors.As(err, &se) {
		switch se.Kind {
		case kb.KindUnauthorized:
			return http.StatusForbidden
		case kb.KindNotFound:
			return http.StatusNotFound
		case kb.KindValidation:
			return http.StatusBadRequest
		case kb.KindThrottled:
			return http.StatusTooManyRequests
		case kb.KindTimeout:
			return http.StatusGatewayTimeout
		case kb.KindUnavailable:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

// WriteError logs the error and writes a JSON error response.
// Details are only returned to the caller for client errors.
func WriteError(log *slog.Logger, w http.ResponseWriter, msg string, err error) {
	status := StatusCode(err)
	if status >= 500 {
		log.Error(msg, slog.Any("error", err))
		respond.WithError(w, msg, status)
		return
	}
	log.Warn(msg, slog.Any("error", err))
	respond.WithError(w, fmt.Sprintf("%s: %v", msg, err), status)
}
