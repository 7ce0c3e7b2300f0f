package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/llm"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/logging"
)

// maxRequestBodyBytes bounds JSON request bodies.
const maxRequestBodyBytes = 1 << 20

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// decodeBody decodes a JSON request body into dst. On failure a 400 is
// written and false is returned.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}
	return true
}

// errorStatus maps a service error to a status code and error code.
// Anything unrecognized is an internal failure.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrEmptyQuestion):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, apperrors.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format"
	case errors.Is(err, apperrors.ErrSchemaArtifactMissing):
		return http.StatusInternalServerError, "schema_artifact_missing"
	}

	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return http.StatusInternalServerError, "generation_failed"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeServiceError writes the response for a failed service call. Client
// errors carry their message; internal errors carry a sanitized one.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	status, code := errorStatus(err)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = logging.SanitizeError(err)
		logger.Error("Request failed",
			zap.String("request_id", logging.RequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.String("error_code", code),
			zap.String("error", message))
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
