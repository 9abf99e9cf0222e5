package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusConflict, "account_exists", "email already registered")

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, ErrorBody{Success: false, Error: "account_exists", Message: "email already registered"}, body)
}

func TestDecodeJSON(t *testing.T) {
	type in struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"email":"a@x.com"}`, false},
		{"unknown fields are tolerated", `{"email":"a@x.com","extra":1}`, false},
		{"empty", ``, true},
		{"not json", `email=a@x.com`, true},
		{"two objects", `{"email":"a"}{"email":"b"}`, true},
		{"wrong type", `{"email":42}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst in
			err := DecodeJSON(r, &dst)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "a@x.com", dst.Email)
		})
	}
}

type fakeResolver struct {
	p   Principal
	ok  bool
	err error
}

func (f fakeResolver) ResolvePrincipal(context.Context, string) (Principal, bool, error) {
	return f.p, f.ok, f.err
}

func TestSessionMiddleware(t *testing.T) {
	ann := Principal{AccountID: "01A", Email: "a@x.com", DisplayName: "Ann"}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, ann, p)
		require.Equal(t, "cred", CredentialFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		cookie   string
		resolver fakeResolver
		want     int
	}{
		{"no cookie", "", fakeResolver{p: ann, ok: true}, http.StatusUnauthorized},
		{"unknown session", "cred", fakeResolver{}, http.StatusUnauthorized},
		{"store failure", "cred", fakeResolver{err: errors.New("boom")}, http.StatusInternalServerError},
		{"live session", "cred", fakeResolver{p: ann, ok: true}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "sid", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			Chain(handler, SessionMiddleware("sid", tt.resolver)).ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
			require.NotContains(t, rec.Body.String(), "boom")
		})
	}
}
