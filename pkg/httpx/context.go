package httpx

import "context"

type ctxKey string

const (
	CtxKeyPrincipal  ctxKey = "principal"
	CtxKeyCredential ctxKey = "session_credential"
)

// Principal is the identity a session resolves to.
type Principal struct {
	AccountID   string
	Email       string
	DisplayName string
}

func contextWithSession(ctx context.Context, p Principal, credential string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyPrincipal, p)
	ctx = context.WithValue(ctx, CtxKeyCredential, credential)
	return ctx
}

// PrincipalFromContext returns the identity injected by SessionMiddleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(Principal)
	return p, ok
}

// CredentialFromContext returns the raw session credential of the request.
func CredentialFromContext(ctx context.Context) string {
	s, _ := ctx.Value(CtxKeyCredential).(string)
	return s
}
