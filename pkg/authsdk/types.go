package authsdk

import "time"

// ============================================================================
// Signup
// ============================================================================

// SignupRequest starts a registration.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignupResponse carries the pending token and the one-time view of the new
// TOTP secret. The account does not exist until VerifySignup succeeds.
type SignupResponse struct {
	Success bool `json:"success"`

	// Token identifies the pending registration for VerifySignup
	Token string `json:"token"`

	// OTPAuthURL is the otpauth:// URI for authenticator apps
	OTPAuthURL string `json:"otpauthUrl"`

	// QRCode is OTPAuthURL rendered as a PNG data URL
	QRCode string `json:"qrCode"`

	// ExpiresAt is when Token stops working
	ExpiresAt time.Time `json:"expiresAt"`
}

// VerifySignupRequest confirms the first code of a pending registration.
type VerifySignupRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

// ============================================================================
// Login
// ============================================================================

// Login states reported by LoginResponse.State.
const (
	LoginStateAwaitingEnrollment = "awaiting_enrollment"
	LoginStateAwaitingChallenge  = "awaiting_challenge"
)

// LoginRequest is the password step.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned after a correct password. OTPAuthURL and QRCode
// are present only when State is LoginStateAwaitingEnrollment.
type LoginResponse struct {
	Success     bool   `json:"success"`
	RequireTOTP bool   `json:"requireTOTP"`
	State       string `json:"state"`

	// Challenge is the short-lived handle for VerifyLogin and QRCode
	Challenge string `json:"challenge"`

	OTPAuthURL string `json:"otpauthUrl,omitempty"`
	QRCode     string `json:"qrCode,omitempty"`
}

// VerifyLoginRequest is the TOTP step.
type VerifyLoginRequest struct {
	Challenge string `json:"challenge"`
	Code      string `json:"code"`
}

// SessionResponse is returned once a session cookie has been set.
type SessionResponse struct {
	Success   bool      `json:"success"`
	Account   Account   `json:"account"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// QRCodeResponse re-renders a pending enrollment.
type QRCodeResponse struct {
	Success    bool   `json:"success"`
	OTPAuthURL string `json:"otpauthUrl"`
	QRCode     string `json:"qrCode"`
}

// ============================================================================
// Accounts
// ============================================================================

// Account is the public projection of an account. It never carries secrets.
type Account struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	IsVerified bool   `json:"isVerified"`
}

// AccountResponse wraps an Account.
type AccountResponse struct {
	Success bool    `json:"success"`
	Account Account `json:"account"`
}

// SuccessResponse is the body of operations with nothing else to report.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the body of every failed response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains per-dependency status (readyz only)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each backing store of the service.
type HealthChecks struct {
	// Accounts is the account store status
	Accounts string `json:"accounts"`

	// Sessions is the session store status
	Sessions string `json:"sessions"`
}
