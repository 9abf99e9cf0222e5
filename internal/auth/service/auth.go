package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/totpgate/internal/auth/domain"
	"github.com/aussiebroadwan/totpgate/internal/auth/pending"
	"github.com/aussiebroadwan/totpgate/internal/auth/store"
	"github.com/aussiebroadwan/totpgate/pkg/cryptox"
	"github.com/aussiebroadwan/totpgate/pkg/idx"
	"github.com/aussiebroadwan/totpgate/pkg/otpx"
	"github.com/aussiebroadwan/totpgate/pkg/slogx"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 1024
	maxNameLength     = 128
)

// LoginState is where a login stands after the password step.
type LoginState string

const (
	StateAwaitingEnrollment LoginState = "awaiting_enrollment"
	StateAwaitingChallenge  LoginState = "awaiting_challenge"
)

type SignupInput struct {
	Email       string
	Password    string
	DisplayName string
}

func (in *SignupInput) normalize() error {
	in.Email = strings.TrimSpace(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	if in.Email == "" || in.Password == "" || in.DisplayName == "" {
		return ErrMissingField
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if n := utf8.RuneCountInString(in.Password); n < minPasswordLength || n > maxPasswordLength {
		return ErrInvalidPassword
	}
	if utf8.RuneCountInString(in.DisplayName) > maxNameLength {
		return fmt.Errorf("%w: name is too long", ErrValidation)
	}
	return nil
}

// SignupResult carries the pending token and the one-time view of the new
// secret.
type SignupResult struct {
	Token         string
	EnrollmentURI string
	QRCode        string // PNG data URL
	ExpiresAt     time.Time
}

type LoginInput struct {
	Email    string
	Password string
}

func (in *LoginInput) normalize() error {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return ErrMissingField
	}
	return nil
}

// LoginResult is the outcome of a correct password. EnrollmentURI and
// QRCode are set only in StateAwaitingEnrollment.
type LoginResult struct {
	State         LoginState
	AccountID     string
	EnrollmentURI string
	QRCode        string
}

// EnrollmentResult re-renders a pending secret.
type EnrollmentResult struct {
	EnrollmentURI string
	QRCode        string
}

// AuthService drives signup, enrollment and the two login steps.
type AuthService struct {
	Accounts  store.Accounts
	Pending   *pending.Store
	Generator *otpx.Generator
	Verifier  *otpx.Verifier
	Hasher    *cryptox.PasswordHasher
	Sessions  *SessionService

	// Now overrides time.Now for account timestamps.
	Now func() time.Time

	dummyOnce sync.Once
	dummy     string
}

// Signup validates the input, rejects taken emails and parks the
// registration until its first code is confirmed. No account exists yet.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (SignupResult, error) {
	if err := in.normalize(); err != nil {
		return SignupResult{}, err
	}

	_, err := s.Accounts.GetAccountByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return SignupResult{}, ErrAccountExists
	case !errors.Is(err, store.ErrNotFound):
		return SignupResult{}, internalError(ctx, "failed to look up account", err)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return SignupResult{}, internalError(ctx, "failed to hash password", err)
	}

	enr, err := s.Generator.Generate(in.Email)
	if err != nil {
		return SignupResult{}, internalError(ctx, "failed to generate TOTP secret", err)
	}
	qr, err := otpx.QRCodeDataURL(enr.URI)
	if err != nil {
		return SignupResult{}, internalError(ctx, "failed to render QR code", err)
	}

	token, expiresAt, err := s.Pending.Put(ctx, domain.PendingRegistration{
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: hash,
		TOTPSecret:   enr.Secret,
	})
	if err != nil {
		return SignupResult{}, internalError(ctx, "failed to store pending registration", err)
	}

	slogx.FromContext(ctx).Info("signup pending", "expires_at", expiresAt)

	return SignupResult{
		Token:         token,
		EnrollmentURI: enr.URI,
		QRCode:        qr,
		ExpiresAt:     expiresAt,
	}, nil
}

// ConfirmEnrollment checks code against the pending secret behind token and,
// on success, creates the verified account and consumes the token. Wrong
// codes leave the registration in place for another try.
func (s *AuthService) ConfirmEnrollment(ctx context.Context, token, code string) (domain.AccountSummary, error) {
	if token == "" {
		return domain.AccountSummary{}, ErrMissingField
	}

	var (
		summary domain.AccountSummary
		taken   bool
	)
	err := s.Pending.Claim(ctx, token, func(reg domain.PendingRegistration) error {
		if err := s.verifyCode(reg.TOTPSecret, code); err != nil {
			return err
		}

		now := s.now().UTC()
		acct := domain.Account{
			ID:           idx.New().String(),
			Email:        reg.Email,
			DisplayName:  reg.DisplayName,
			PasswordHash: reg.PasswordHash,
			TOTPSecret:   reg.TOTPSecret,
			IsVerified:   true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.Accounts.CreateAccount(ctx, acct); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				// Someone else confirmed this email first. The registration
				// can never succeed now, so let it be consumed.
				taken = true
				return nil
			}
			return internalError(ctx, "failed to create account", err)
		}
		summary = acct.Summary()
		return nil
	})
	switch {
	case errors.Is(err, pending.ErrNotFound):
		return domain.AccountSummary{}, ErrSessionExpired
	case err != nil:
		return domain.AccountSummary{}, err
	case taken:
		return domain.AccountSummary{}, ErrAccountExists
	}

	slogx.FromContext(ctx).Info("account enrolled", "account_id", summary.ID)
	return summary, nil
}

// Login checks the password. Unknown emails and wrong passwords fail the
// same way after the same amount of hashing work.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if err := in.normalize(); err != nil {
		return LoginResult{}, err
	}

	acct, err := s.Accounts.GetAccountByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, internalError(ctx, "failed to look up account", err)
		}
		_ = s.Hasher.Verify(in.Password, s.dummyHash())
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := s.Hasher.Verify(in.Password, acct.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, internalError(ctx, "failed to verify password", err)
	}

	if acct.Enrolled() {
		return LoginResult{State: StateAwaitingChallenge, AccountID: acct.ID}, nil
	}

	enr, err := s.Generator.Generate(acct.Email)
	if err != nil {
		return LoginResult{}, internalError(ctx, "failed to generate TOTP secret", err)
	}
	if err := s.Accounts.SetPendingTOTPSecret(ctx, acct.ID, enr.Secret); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Enrolled between the read and the write.
			return LoginResult{State: StateAwaitingChallenge, AccountID: acct.ID}, nil
		}
		return LoginResult{}, internalError(ctx, "failed to store pending TOTP secret", err)
	}
	qr, err := otpx.QRCodeDataURL(enr.URI)
	if err != nil {
		return LoginResult{}, internalError(ctx, "failed to render QR code", err)
	}

	return LoginResult{
		State:         StateAwaitingEnrollment,
		AccountID:     acct.ID,
		EnrollmentURI: enr.URI,
		QRCode:        qr,
	}, nil
}

// ConfirmLoginChallenge checks code against the account's confirmed secret
// and issues a session on success. Failures issue nothing.
func (s *AuthService) ConfirmLoginChallenge(ctx context.Context, accountID, code string) (domain.AccountSummary, SessionCredential, error) {
	acct, err := s.loadAccount(ctx, accountID, code)
	if err != nil {
		return domain.AccountSummary{}, SessionCredential{}, err
	}
	if !acct.Enrolled() {
		return domain.AccountSummary{}, SessionCredential{}, ErrMissingSecret
	}
	if err := s.verifyCode(acct.TOTPSecret, code); err != nil {
		return domain.AccountSummary{}, SessionCredential{}, err
	}

	summary := acct.Summary()
	cred, err := s.Sessions.Issue(ctx, summary)
	if err != nil {
		return domain.AccountSummary{}, SessionCredential{}, err
	}
	return summary, cred, nil
}

// ConfirmAccountEnrollment finishes enrollment for an existing account that
// logged in before confirming a secret. The pending secret is promoted only
// if it is still the one the code was checked against.
func (s *AuthService) ConfirmAccountEnrollment(ctx context.Context, accountID, code string) (domain.AccountSummary, SessionCredential, error) {
	acct, err := s.loadAccount(ctx, accountID, code)
	if err != nil {
		return domain.AccountSummary{}, SessionCredential{}, err
	}
	if acct.Enrolled() || acct.PendingTOTPSecret == "" {
		return domain.AccountSummary{}, SessionCredential{}, ErrMissingSecret
	}
	if err := s.verifyCode(acct.PendingTOTPSecret, code); err != nil {
		return domain.AccountSummary{}, SessionCredential{}, err
	}

	if err := s.Accounts.PromotePendingTOTPSecret(ctx, acct.ID, acct.PendingTOTPSecret); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return domain.AccountSummary{}, SessionCredential{}, ErrMissingSecret
		case errors.Is(err, store.ErrNotFound):
			return domain.AccountSummary{}, SessionCredential{}, ErrAccountNotFound
		}
		return domain.AccountSummary{}, SessionCredential{}, internalError(ctx, "failed to promote TOTP secret", err)
	}
	slogx.FromContext(ctx).Info("account enrolled", "account_id", acct.ID)

	summary := acct.Summary()
	summary.IsVerified = true
	cred, err := s.Sessions.Issue(ctx, summary)
	if err != nil {
		return domain.AccountSummary{}, SessionCredential{}, err
	}
	return summary, cred, nil
}

// EnrollmentQRCode re-renders the pending secret of an unenrolled account.
func (s *AuthService) EnrollmentQRCode(ctx context.Context, accountID string) (EnrollmentResult, error) {
	if accountID == "" {
		return EnrollmentResult{}, ErrMissingField
	}
	acct, err := s.getAccount(ctx, accountID)
	if err != nil {
		return EnrollmentResult{}, err
	}
	if acct.Enrolled() || acct.PendingTOTPSecret == "" {
		return EnrollmentResult{}, ErrMissingSecret
	}

	enr, err := s.Generator.Rebuild(acct.Email, acct.PendingTOTPSecret)
	if err != nil {
		return EnrollmentResult{}, internalError(ctx, "failed to rebuild enrollment URI", err)
	}
	qr, err := otpx.QRCodeDataURL(enr.URI)
	if err != nil {
		return EnrollmentResult{}, internalError(ctx, "failed to render QR code", err)
	}
	return EnrollmentResult{EnrollmentURI: enr.URI, QRCode: qr}, nil
}

// loadAccount rejects a malformed code before touching the store.
func (s *AuthService) loadAccount(ctx context.Context, accountID, code string) (domain.Account, error) {
	if accountID == "" {
		return domain.Account{}, ErrMissingField
	}
	if _, err := otpx.NormalizeCode(code); err != nil {
		return domain.Account{}, ErrInvalidCodeFormat
	}
	return s.getAccount(ctx, accountID)
}

func (s *AuthService) getAccount(ctx context.Context, accountID string) (domain.Account, error) {
	acct, err := s.Accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, internalError(ctx, "failed to load account", err)
	}
	return acct, nil
}

func (s *AuthService) verifyCode(secret, code string) error {
	err := s.Verifier.Verify(secret, code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, otpx.ErrInvalidCodeFormat):
		return ErrInvalidCodeFormat
	default:
		return ErrInvalidCode
	}
}

// dummyHash is verified against for unknown emails so both login failures
// cost one Argon2id evaluation.
func (s *AuthService) dummyHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.Hasher.Hash("not-a-real-password")
		if err != nil {
			h = "$argon2id$v=19$m=19456,t=2,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"
		}
		s.dummy = h
	})
	return s.dummy
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}
