package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/domain"
	"github.com/aussiebroadwan/totpgate/internal/auth/store"
	"github.com/aussiebroadwan/totpgate/pkg/cryptox"
	"github.com/aussiebroadwan/totpgate/pkg/httpx"
	"github.com/aussiebroadwan/totpgate/pkg/slogx"
)

// DefaultSessionTTL is the absolute lifetime of a session. Activity does not
// extend it.
const DefaultSessionTTL = time.Hour

// SessionCredential is handed to the client once and never stored.
type SessionCredential struct {
	Token     string
	ExpiresAt time.Time
}

// SessionService issues, resolves and destroys opaque session credentials.
type SessionService struct {
	Sessions store.Sessions
	TTL      time.Duration

	// Now overrides time.Now.
	Now func() time.Time
}

var _ httpx.SessionResolver = (*SessionService)(nil)

// NewSessionService returns a service with DefaultSessionTTL when ttl <= 0.
func NewSessionService(sessions store.Sessions, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{Sessions: sessions, TTL: ttl, Now: time.Now}
}

// Issue creates a session bound to acct.
func (s *SessionService) Issue(ctx context.Context, acct domain.AccountSummary) (SessionCredential, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return SessionCredential{}, internalError(ctx, "failed to generate session credential", err)
	}

	now := s.now().UTC()
	sess := domain.Session{
		TokenHash:   cryptox.FingerprintToken(token),
		AccountID:   acct.ID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl()),
	}
	if err := s.Sessions.CreateSession(ctx, sess); err != nil {
		return SessionCredential{}, internalError(ctx, "failed to store session", err)
	}

	slogx.FromContext(ctx).Info("session issued", "account_id", acct.ID, "expires_at", sess.ExpiresAt)
	return SessionCredential{Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// Resolve returns the account a credential belongs to. ok is false for
// credentials that are unknown, destroyed or expired.
func (s *SessionService) Resolve(ctx context.Context, credential string) (domain.AccountSummary, bool, error) {
	if credential == "" {
		return domain.AccountSummary{}, false, nil
	}

	hash := cryptox.FingerprintToken(credential)
	sess, err := s.Sessions.GetSessionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AccountSummary{}, false, nil
		}
		return domain.AccountSummary{}, false, internalError(ctx, "failed to load session", err)
	}

	if sess.Expired(s.now()) {
		if err := s.Sessions.DeleteSession(ctx, hash); err != nil {
			slogx.FromContext(ctx).Warn("failed to delete expired session", slogx.Err(err))
		}
		return domain.AccountSummary{}, false, nil
	}
	return sess.Summary(), true, nil
}

// ResolvePrincipal adapts Resolve for httpx.SessionMiddleware.
func (s *SessionService) ResolvePrincipal(ctx context.Context, credential string) (httpx.Principal, bool, error) {
	acct, ok, err := s.Resolve(ctx, credential)
	if err != nil || !ok {
		return httpx.Principal{}, ok, err
	}
	return httpx.Principal{
		AccountID:   acct.ID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
	}, true, nil
}

// Destroy invalidates credential immediately. Unknown credentials are not an
// error.
func (s *SessionService) Destroy(ctx context.Context, credential string) error {
	if credential == "" {
		return nil
	}
	if err := s.Sessions.DeleteSession(ctx, cryptox.FingerprintToken(credential)); err != nil {
		return internalError(ctx, "failed to delete session", err)
	}
	return nil
}

// DeleteExpired removes sessions past their deadline from backends that do
// not expire records on their own.
func (s *SessionService) DeleteExpired(ctx context.Context) (int64, error) {
	return s.Sessions.DeleteExpiredSessions(ctx, s.now().UTC())
}

func (s *SessionService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultSessionTTL
	}
	return s.TTL
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
