package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/totpgate/internal/auth/service"
	"github.com/aussiebroadwan/totpgate/pkg/authsdk"
	"github.com/aussiebroadwan/totpgate/pkg/httpx"
	"github.com/aussiebroadwan/totpgate/pkg/slogx"
)

// writeServiceError maps a service error onto its API error. Concrete
// errors are checked before their categories.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCodeFormat):
		authsdk.ErrInvalidCodeFormat.WriteError(w)
	case errors.Is(err, service.ErrValidation):
		authsdk.ErrValidation.WithMessage(err.Error()).WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrInvalidCode):
		authsdk.ErrInvalidCode.WriteError(w)
	case errors.Is(err, service.ErrSessionExpired):
		authsdk.ErrSessionExpired.WriteError(w)
	case errors.Is(err, service.ErrMissingSecret):
		authsdk.ErrMissingSecret.WriteError(w)
	case errors.Is(err, service.ErrAccountNotFound):
		authsdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrAccountExists):
		authsdk.ErrAccountExists.WriteError(w)
	default:
		// Internal errors were logged with detail where they happened.
		if !errors.Is(err, service.ErrInternal) {
			slogx.FromContext(r.Context()).Error("unhandled service error", slogx.Err(err))
		}
		authsdk.ErrServerError.WriteError(w)
	}
}

// decodeRequest reads a JSON body into dst and writes a 400 on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, httpx.MaxBodyBytes)
	if err := httpx.DecodeJSON(r, dst); err != nil {
		authsdk.ErrInvalidRequest.WithMessage(err.Error()).WriteError(w)
		return false
	}
	return true
}
