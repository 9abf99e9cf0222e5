package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/totpgate/pkg/slogx"
)

// Error categories. Every error returned by this package matches exactly
// one of these with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal error")
)

var (
	ErrMissingField      = fmt.Errorf("%w: missing required field", ErrValidation)
	ErrInvalidEmail      = fmt.Errorf("%w: invalid email address", ErrValidation)
	ErrInvalidPassword   = fmt.Errorf("%w: password must be between 6 and 1024 characters", ErrValidation)
	ErrInvalidCodeFormat = fmt.Errorf("%w: code must be 6 digits", ErrValidation)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrAuthentication)
	ErrInvalidCode        = fmt.Errorf("%w: invalid code", ErrAuthentication)

	ErrSessionExpired  = fmt.Errorf("%w: registration expired or unknown", ErrNotFound)
	ErrAccountNotFound = fmt.Errorf("%w: account not found", ErrNotFound)
	ErrMissingSecret   = fmt.Errorf("%w: no TOTP secret to verify against", ErrNotFound)

	ErrAccountExists = fmt.Errorf("%w: account already exists", ErrConflict)
)

// internalError logs err with the request logger and returns an opaque
// ErrInternal. The cause is not wrapped so it cannot leak to clients.
func internalError(ctx context.Context, msg string, err error) error {
	slogx.FromContext(ctx).Error(msg, slogx.Err(err))
	return fmt.Errorf("%w: %s", ErrInternal, msg)
}
