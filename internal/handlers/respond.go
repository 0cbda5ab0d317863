package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"budgetwise/internal/apperrors"
	"budgetwise/internal/log"
)

// MsgInternal is the only message clients see for unexpected failures.
const MsgInternal = "An error occurred while processing your request."

const maxBodyBytes = 1 << 20

// MessageResponse is the body of responses that carry only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// TokenResponse is the body of a successful login.
type TokenResponse struct {
	Token string `json:"token"`
}

// writeJSON encodes v as the response body. The status is already sent when
// encoding fails, so the failure can only be logged.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "encode response failed",
			log.FieldStatusCode, status,
			log.FieldError, err,
		)
	}
}

// writeError maps an error to its status and client-safe body. Causes of
// internal errors are logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	logger := log.FromContext(r.Context())

	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			log.FieldErrorCode, string(code),
			log.FieldError, err,
		)
		writeJSON(w, r, status, ErrorResponse{Message: MsgInternal})
		return
	}

	var appErr *apperrors.Error
	errors.As(err, &appErr)

	if status == http.StatusUnauthorized {
		if code.IsAuth() {
			w.Header().Set("WWW-Authenticate", `Bearer`)
			if code != apperrors.CodeUnauthenticated {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			}
		}
		logger.DebugContext(r.Context(), "request unauthorized", log.FieldErrorCode, string(code), log.FieldError, err)
	}

	writeJSON(w, r, status, ErrorResponse{Message: appErr.Message, Errors: appErr.Fields})
}

// decodeJSON reads a JSON request body into v. Any failure is reported as a
// validation error carrying message.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, message string) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		detail := "request body must be a JSON object"
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			detail = "request body is empty"
		case errors.As(err, &maxErr):
			detail = "request body is too large"
		}
		return apperrors.WithFields(apperrors.CodeValidation, message, []string{detail})
	}
	return nil
}
