package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/totpgate/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeInvalidCodeFormat  = "invalid_code_format"
	ErrorCodeInvalidCode        = "invalid_code"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidChallenge   = "invalid_challenge"
	ErrorCodeSessionExpired     = "session_expired"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeMissingSecret      = "missing_secret"
	ErrorCodeAccountExists      = "account_exists"
	ErrorCodeUnauthorized       = "unauthorized"
	ErrorCodeServerError        = "server_error"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is the error body of every failed response. The server writes it
// with WriteError; the SDK client returns it from failed calls.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g., "invalid_code")
	Code string `json:"error"`

	// Message is shown to the user as is
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *APIError with the same Code, so errors.Is works against
// the predefined values regardless of message.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes e as an error body.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteError(w, e.StatusCode, e.Code, e.Message)
}

// WithMessage returns a copy of e carrying message.
func (e *APIError) WithMessage(message string) *APIError {
	return &APIError{StatusCode: e.StatusCode, Code: e.Code, Message: message}
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrInvalidRequest is returned for bodies that are not a JSON object.
	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeInvalidRequest,
		Message:    "the request is malformed",
	}

	// ErrValidation is returned when a field is missing or malformed.
	ErrValidation = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeValidation,
		Message:    "missing or invalid fields",
	}

	// ErrInvalidCodeFormat is returned when a code is not exactly 6 digits.
	ErrInvalidCodeFormat = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeInvalidCodeFormat,
		Message:    "code must be 6 digits",
	}

	// ErrInvalidCode is returned when a well-formed code does not match.
	ErrInvalidCode = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidCode,
		Message:    "invalid code",
	}

	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidCredentials,
		Message:    "invalid email or password",
	}

	// ErrInvalidChallenge is returned for a tampered or expired login handle.
	ErrInvalidChallenge = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidChallenge,
		Message:    "login challenge is invalid or expired, please log in again",
	}

	// ErrSessionExpired is returned when a signup token is unknown or expired.
	ErrSessionExpired = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeSessionExpired,
		Message:    "signup session expired, please sign up again",
	}

	// ErrNotFound is returned when the account behind a handle is gone.
	ErrNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeNotFound,
		Message:    "account not found",
	}

	// ErrMissingSecret is returned when there is no secret to check a code
	// against in the requested step.
	ErrMissingSecret = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeMissingSecret,
		Message:    "two-factor setup is not in the expected state, please log in again",
	}

	// ErrAccountExists is returned by signup for a taken email.
	ErrAccountExists = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeAccountExists,
		Message:    "an account with this email already exists",
	}

	// ErrUnauthorized is returned when no live session cookie is present.
	ErrUnauthorized = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeUnauthorized,
		Message:    "not logged in",
	}

	// ErrServerError hides every internal failure.
	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrorCodeServerError,
		Message:    "internal server error",
	}
)

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Error,
			Message:    errResp.Message,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       ErrorCodeServerError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
