package authsdk

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// SessionCookieName is the cookie the service stores the session credential in.
const SessionCookieName = "totpgate_session"

// SDKClient is a client for the TOTPGate authentication service. It keeps
// the session cookie in its jar, so one client is one browser-like user.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client with an empty cookie jar.
func NewSDKClient(baseURL string) *SDKClient {
	jar, _ := cookiejar.New(nil) // only fails for a non-nil options value

	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
}

// Signup starts a registration and returns the pending token and secret.
func (c *SDKClient) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	var out SignupResponse
	if err := c.postJSON(ctx, "/api/signup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifySignup confirms the first code and creates the account. It does
// not log in.
func (c *SDKClient) VerifySignup(ctx context.Context, token, code string) (*Account, error) {
	var out AccountResponse
	if err := c.postJSON(ctx, "/api/signup/verify", VerifySignupRequest{Token: token, Code: code}, &out); err != nil {
		return nil, err
	}
	return &out.Account, nil
}

// Login runs the password step.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.postJSON(ctx, "/api/login", LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyLogin runs the TOTP step. On success the session cookie is stored
// in the client's jar.
func (c *SDKClient) VerifyLogin(ctx context.Context, challenge, code string) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.postJSON(ctx, "/api/login/verify", VerifyLoginRequest{Challenge: challenge, Code: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QRCode re-renders the pending enrollment behind challenge.
func (c *SDKClient) QRCode(ctx context.Context, challenge string) (*QRCodeResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/qrcode?challenge="+url.QueryEscape(challenge), nil)
	if err != nil {
		return nil, err
	}

	var out QRCodeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the account of the current session.
func (c *SDKClient) Me(ctx context.Context) (*Account, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/me", nil)
	if err != nil {
		return nil, err
	}

	var out AccountResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.Account, nil
}

// Logout destroys the current session. It succeeds without a session too.
func (c *SDKClient) Logout(ctx context.Context) error {
	var out SuccessResponse
	return c.postJSON(ctx, "/api/logout", struct{}{}, &out)
}

// SessionCookie returns the session credential held in the jar, if any.
func (c *SDKClient) SessionCookie() string {
	if c.HTTPClient.Jar == nil {
		return ""
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(u) {
		if ck.Name == SessionCookieName {
			return ck.Value
		}
	}
	return ""
}
