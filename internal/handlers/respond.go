package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vivatube/backend/internal/apierror"
	"github.com/vivatube/backend/internal/logging"
)

// successEnvelope is the uniform body returned on success.
type successEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// errorEnvelope mirrors successEnvelope with a null data field and an
// errors array. Internal causes are logged, never rendered.
type errorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := successEnvelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	apiErr := apierror.From(err)
	status := apiErr.Status()

	logger := logging.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request returned client error", "status", status, "message", apiErr.Message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := errorEnvelope{
		StatusCode: status,
		Data:       nil,
		Message:    apiErr.Message,
		Success:    false,
		Errors:     []string{},
	}
	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
		logger.Error("encode error body", "status", status, "error", encodeErr)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.Validation("Invalid request body.")
	}
	return nil
}
