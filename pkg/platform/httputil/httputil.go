// Package httputil maps domain errors onto HTTP responses.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "givepool/pkg/domain-errors"
)

// errorResponse is the wire shape for failed requests.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// statusFor maps domain error codes onto HTTP statuses. Unknown codes are
// internal errors.
func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest,
		dErrors.CodeInvalidAmount, dErrors.CodeInvalidIdentity:
		return http.StatusBadRequest
	case dErrors.CodeNotFound, dErrors.CodeUnknownProject:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized, dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeConflict, dErrors.CodeAlreadyInitialized, dErrors.CodeNotInitialized,
		dErrors.CodeAlreadyReleased, dErrors.CodeInvalidStatusTransition,
		dErrors.CodeGoalNotReached, dErrors.CodeNoRecordedDonation,
		dErrors.CodeInvariantViolation:
		return http.StatusConflict
	case dErrors.CodeAssetNotAllowed, dErrors.CodeFeeExceedsCeiling:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTransferFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders a domain error as JSON. Internal errors omit the
// description so implementation details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	status := statusFor(code)

	body := errorResponse{Error: string(code)}
	if status != http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body.ErrorDescription = de.Message
		}
	}
	WriteJSON(w, status, body)
}

// Validatable is implemented by request types that validate and parse their
// own fields after decoding.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes the JSON request body into T and runs its
// validation. On failure the error response has already been written and the
// second return is false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request body decode failed", "request_id", requestID, "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must be valid JSON"))
		return nil, false
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}

// WriteJSON renders v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
