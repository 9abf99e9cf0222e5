package auth_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/totpgate/pkg/authsdk"
)

// TestInvalidCredentials verifies that a wrong password and an unknown
// email are indistinguishable.
func TestInvalidCredentials(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	signupAndConfirm(t, client, testEmail, testPassword, testName)

	_, wrongPassword := client.Login(t.Context(), testEmail, "wrong-password")
	assertAPIError(t, wrongPassword, authsdk.ErrInvalidCredentials, "Wrong password should be rejected")

	_, unknownEmail := client.Login(t.Context(), "nobody@example.com", testPassword)
	assertAPIError(t, unknownEmail, authsdk.ErrInvalidCredentials, "Unknown email should be rejected")

	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	t.Logf("Invalid credentials correctly rejected with 401")
}

// TestForgedChallenge verifies the TOTP step only accepts challenges this
// service signed.
func TestForgedChallenge(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	_, otpauthURL := signupAndConfirm(t, client, testEmail, testPassword, testName)

	forged := "eyJhbGciOiJub25lIn0.eyJzdWIiOiJ4In0."
	_, err := client.VerifyLogin(t.Context(), forged, currentCode(t, otpauthURL))
	assertAPIError(t, err, authsdk.ErrInvalidChallenge, "Forged challenge should be rejected")
	require.Empty(t, client.SessionCookie())
}

// TestMeRequiresSession verifies /api/me without or with a bogus cookie.
func TestMeRequiresSession(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	_, err := client.Me(t.Context())
	assertAPIError(t, err, authsdk.ErrUnauthorized, "Missing cookie should be rejected")

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, baseURL+"/api/me", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: authsdk.SessionCookieName, Value: "invalid-session-12345"})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// TestSessionCookieAttributes verifies the cookie is HttpOnly and Lax.
func TestSessionCookieAttributes(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	_, otpauthURL := signupAndConfirm(t, client, testEmail, testPassword, testName)

	login, err := client.Login(t.Context(), testEmail, testPassword)
	require.NoError(t, err)

	body := `{"challenge":"` + login.Challenge + `","code":"` + currentCode(t, otpauthURL) + `"}`
	resp, err := http.Post(baseURL+"/api/login/verify", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == authsdk.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session, "Session cookie should be set")
	require.True(t, session.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, session.SameSite)
	require.Equal(t, "/", session.Path)
	require.Positive(t, session.MaxAge)
}
