package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/domain"
	"github.com/aussiebroadwan/totpgate/internal/auth/service"
	"github.com/aussiebroadwan/totpgate/pkg/authsdk"
	"github.com/aussiebroadwan/totpgate/pkg/httpx"
	"github.com/aussiebroadwan/totpgate/pkg/jwtx"
	"github.com/aussiebroadwan/totpgate/pkg/slogx"
)

// AuthHandler serves the signup, login and session endpoints.
type AuthHandler struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
	Challenges     *jwtx.HS256
	ChallengeTTL   time.Duration
	CookieSecure   bool
}

// HandleSignup handles POST /api/signup
//
//	@Summary		Start a signup
//	@Description	Validates the input and returns a pending token plus a new TOTP secret as otpauth URI and QR code. No account exists until the first code is verified.
//	@Tags			Signup
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignupRequest	true	"email, password, name"
//	@Success		200		{object}	authsdk.SignupResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing or invalid fields"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Email already registered"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/api/signup [post].
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.SignupRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.AuthService.Signup(ctx, service.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.Name,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SignupResponse{
		Success:    true,
		Token:      res.Token,
		OTPAuthURL: res.EnrollmentURI,
		QRCode:     res.QRCode,
		ExpiresAt:  res.ExpiresAt.UTC(),
	})
}

// HandleSignupVerify handles POST /api/signup/verify
//
//	@Summary		Confirm a signup
//	@Description	Verifies the first TOTP code of a pending signup and creates the account. Wrong codes may be retried until the token expires.
//	@Tags			Signup
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifySignupRequest	true	"token, code"
//	@Success		200		{object}	authsdk.AccountResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Code is not 6 digits"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Wrong code"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Signup token unknown or expired"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Email registered meanwhile"
//	@Router			/api/signup/verify [post].
func (h *AuthHandler) HandleSignupVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.VerifySignupRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	acct, err := h.AuthService.ConfirmEnrollment(ctx, req.Token, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.AccountResponse{
		Success: true,
		Account: toAccount(acct),
	})
}

// HandleLogin handles POST /api/login
//
//	@Summary		Password step of login
//	@Description	Checks email and password and returns a short-lived challenge for the TOTP step. Accounts without a confirmed secret also receive a fresh secret to enroll with.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"email, password"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing fields"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid email or password"
//	@Router			/api/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.AuthService.Login(ctx, service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	stage := jwtx.StageChallenge
	if res.State == service.StateAwaitingEnrollment {
		stage = jwtx.StageEnrollment
	}
	challenge, err := h.Challenges.Sign(jwtx.NewChallengeClaims(res.AccountID, stage, h.Challenges.Issuer(), h.ChallengeTTL, time.Now()))
	if err != nil {
		log.Error("failed to sign login challenge", slogx.Err(err))
		authsdk.ErrServerError.WriteError(w)
		return
	}

	log.Info("password accepted", "account_id", res.AccountID, "state", res.State)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Success:     true,
		RequireTOTP: true,
		State:       string(res.State),
		Challenge:   challenge,
		OTPAuthURL:  res.EnrollmentURI,
		QRCode:      res.QRCode,
	})
}

// HandleLoginVerify handles POST /api/login/verify
//
//	@Summary		TOTP step of login
//	@Description	Verifies a code for the challenge from /api/login and sets the session cookie. For accounts still enrolling the code confirms the new secret first.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyLoginRequest	true	"challenge, code"
//	@Success		200		{object}	authsdk.SessionResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Code is not 6 digits"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Wrong code or invalid challenge"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Account not found"
//	@Failure		409		{object}	authsdk.ErrorResponse	"No secret to verify against"
//	@Router			/api/login/verify [post].
func (h *AuthHandler) HandleLoginVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.VerifyLoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	claims, ok := h.verifyChallenge(w, r, req.Challenge)
	if !ok {
		return
	}

	var (
		acct domain.AccountSummary
		cred service.SessionCredential
		err  error
	)
	switch claims.Stage {
	case jwtx.StageEnrollment:
		acct, cred, err = h.AuthService.ConfirmAccountEnrollment(ctx, claims.Subject, req.Code)
	default:
		acct, cred, err = h.AuthService.ConfirmLoginChallenge(ctx, claims.Subject, req.Code)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(cred.Token, cred.ExpiresAt))
	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{
		Success:   true,
		Account:   toAccount(acct),
		ExpiresAt: cred.ExpiresAt.UTC(),
	})
}

// HandleQRCode handles GET /api/qrcode
//
//	@Summary		Re-render a pending enrollment
//	@Description	Returns the otpauth URI and QR code of the secret handed out by the last login of an account that is still enrolling.
//	@Tags			Login
//	@Produce		json
//	@Param			challenge	query		string	true	"challenge from /api/login"
//	@Success		200			{object}	authsdk.QRCodeResponse
//	@Failure		401			{object}	authsdk.ErrorResponse	"Invalid challenge"
//	@Failure		404			{object}	authsdk.ErrorResponse	"Account not found"
//	@Failure		409			{object}	authsdk.ErrorResponse	"No pending secret"
//	@Router			/api/qrcode [get].
func (h *AuthHandler) HandleQRCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := h.verifyChallenge(w, r, r.URL.Query().Get("challenge"))
	if !ok {
		return
	}

	res, err := h.AuthService.EnrollmentQRCode(ctx, claims.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.QRCodeResponse{
		Success:    true,
		OTPAuthURL: res.EnrollmentURI,
		QRCode:     res.QRCode,
	})
}

// HandleMe handles GET /api/me
//
//	@Summary		Current account
//	@Description	Returns the account bound to the session cookie.
//	@Tags			Session
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{object}	authsdk.AccountResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Not logged in"
//	@Router			/api/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.AccountResponse{
		Success: true,
		Account: authsdk.Account{
			ID:         p.AccountID,
			Email:      p.Email,
			Name:       p.DisplayName,
			IsVerified: true,
		},
	})
}

// HandleLogout handles POST /api/logout
//
//	@Summary		Log out
//	@Description	Destroys the session behind the cookie, if any, and clears the cookie.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	authsdk.SuccessResponse
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/api/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cookie, err := r.Cookie(authsdk.SessionCookieName); err == nil {
		if err := h.SessionService.Destroy(ctx, cookie.Value); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	http.SetCookie(w, h.clearedCookie())
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
}

func (h *AuthHandler) verifyChallenge(w http.ResponseWriter, r *http.Request, token string) (jwtx.Claims, bool) {
	if token == "" {
		authsdk.ErrValidation.WithMessage("challenge is required").WriteError(w)
		return jwtx.Claims{}, false
	}
	claims, err := h.Challenges.Verify(token)
	if err != nil {
		slogx.FromContext(r.Context()).Info("rejected login challenge", slogx.Err(err))
		authsdk.ErrInvalidChallenge.WriteError(w)
		return jwtx.Claims{}, false
	}
	return claims, true
}

func (h *AuthHandler) sessionCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     authsdk.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) clearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     authsdk.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func toAccount(a domain.AccountSummary) authsdk.Account {
	return authsdk.Account{
		ID:         a.ID,
		Email:      a.Email,
		Name:       a.DisplayName,
		IsVerified: a.IsVerified,
	}
}
