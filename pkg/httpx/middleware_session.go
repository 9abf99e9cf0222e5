package httpx

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/totpgate/pkg/slogx"
)

// SessionResolver maps a session credential to its principal. ok is false
// for anything expired, destroyed or never issued.
type SessionResolver interface {
	ResolvePrincipal(ctx context.Context, credential string) (p Principal, ok bool, err error)
}

// SessionMiddleware requires a live session cookie named cookieName and
// injects the principal into the request context.
func SessionMiddleware(cookieName string, resolver SessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				writeUnauthorized(w)
				return
			}

			p, ok, err := resolver.ResolvePrincipal(ctx, cookie.Value)
			if err != nil {
				log.Error("session lookup failed", slogx.Err(err))
				WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
				return
			}
			if !ok {
				writeUnauthorized(w)
				return
			}

			ctx = contextWithSession(ctx, p, cookie.Value)
			ctx = slogx.With(ctx, "account_id", p.AccountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", "not logged in")
}
