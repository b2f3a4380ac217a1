package errorhandler

import (
	"context"
	"net/http"

	"github.com/mcu-prisar/heritage-web/internal/middleware"
	"github.com/mcu-prisar/heritage-web/internal/pkg/logger"
	"github.com/mcu-prisar/heritage-web/internal/pkg/response"
)

// HandleError logs the failure with request context and writes the error envelope.
// 4xx are logged at warn, everything else at error.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	l := logger.FromContext(ctx)
	event := l.Error()
	if status < http.StatusInternalServerError {
		event = l.Warn()
	}

	event = event.
		Str("request_id", middleware.GetRequestID(ctx)).
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("Request error")

	response.Error(w, status, code, message)
}

// HandleValidationError logs field errors and writes a 422 envelope
func HandleValidationError(ctx context.Context, w http.ResponseWriter, fieldErrors map[string]string) {
	logger.FromContext(ctx).Warn().
		Str("request_id", middleware.GetRequestID(ctx)).
		Interface("validation_errors", fieldErrors).
		Msg("Validation error")

	response.ValidationError(w, fieldErrors)
}

// LogStorageError logs errors coming back from the object storage backend
func LogStorageError(ctx context.Context, operation, key string, err error) {
	logger.FromContext(ctx).Error().
		Str("request_id", middleware.GetRequestID(ctx)).
		Str("operation", operation).
		Str("key", key).
		Err(err).
		Msg("Storage error")
}
