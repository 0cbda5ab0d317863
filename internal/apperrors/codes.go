package apperrors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unclassified failure.
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeValidation Code = "VALIDATION"
	CodeNotFound   Code = "NOT_FOUND"
	CodeInternal   Code = "INTERNAL"

	// Registration and login errors
	CodeWeakPassword       Code = "WEAK_PASSWORD"
	CodeDuplicateEmail     Code = "DUPLICATE_EMAIL"
	CodeDuplicateUsername  Code = "DUPLICATE_USERNAME"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"

	// Token errors
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeInvalidToken    Code = "INVALID_TOKEN"
	CodeExpiredToken    Code = "EXPIRED_TOKEN"
	CodeMalformedToken  Code = "MALFORMED_TOKEN"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeWeakPassword:
		return http.StatusBadRequest

	case CodeUnauthenticated,
		CodeInvalidToken,
		CodeExpiredToken,
		CodeMalformedToken,
		CodeInvalidCredentials:
		return http.StatusUnauthorized

	// Ownership mismatches are reported as NotFound too.
	case CodeNotFound:
		return http.StatusNotFound

	case CodeDuplicateEmail, CodeDuplicateUsername:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// IsAuth reports whether the code is an authentication failure.
func (c Code) IsAuth() bool {
	return c.HTTPStatus() == http.StatusUnauthorized && c != CodeInvalidCredentials
}
