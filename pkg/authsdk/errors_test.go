package authsdk

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIError_WriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrInvalidCode.WriteError(rec)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"success":false,"error":"invalid_code","message":"invalid code"}`, rec.Body.String())
}

func TestAPIError_IsMatchesByCode(t *testing.T) {
	custom := ErrValidation.WithMessage("email is required")

	require.ErrorIs(t, custom, ErrValidation)
	require.NotErrorIs(t, custom, ErrInvalidCodeFormat)
	require.Equal(t, "email is required", custom.Message)
	require.Equal(t, "missing or invalid fields", ErrValidation.Message, "WithMessage copies")

	var target *APIError
	require.True(t, errors.As(error(custom), &target))
	require.Equal(t, http.StatusBadRequest, target.StatusCode)
}

func TestParseErrorResponse(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{"error body", http.StatusConflict, `{"success":false,"error":"account_exists","message":"taken"}`, ErrorCodeAccountExists, "taken"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, ErrorCodeServerError, "HTTP 502: Bad Gateway"},
		{"empty error field", http.StatusNotFound, `{"success":false}`, ErrorCodeServerError, "HTTP 404: Not Found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := parseErrorResponse(&http.Response{StatusCode: tc.status}, []byte(tc.body))
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tc.status, apiErr.StatusCode)
			require.Equal(t, tc.wantCode, apiErr.Code)
			require.Equal(t, tc.wantMsg, apiErr.Message)
		})
	}

	require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
}

func TestDecodeJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			ErrSessionExpired.WriteError(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := NewSDKClient(srv.URL + "/")
	require.Equal(t, srv.URL, c.BaseURL)

	var ok SuccessResponse
	require.NoError(t, c.postJSON(t.Context(), "/ok", struct{}{}, &ok))
	require.True(t, ok.Success)

	err := c.postJSON(t.Context(), "/fail", struct{}{}, &ok)
	require.ErrorIs(t, err, ErrSessionExpired)
}
