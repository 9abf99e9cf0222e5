package domain

import "time"

// Session models the stored session record. The client holds the raw
// credential; only its fingerprint is persisted.
type Session struct {
	TokenHash   string // base64url SHA-256 of the credential
	AccountID   string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the session is past its absolute deadline.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Summary projects the session back to the account identity it carries.
func (s *Session) Summary() AccountSummary {
	return AccountSummary{
		ID:          s.AccountID,
		Email:       s.Email,
		DisplayName: s.DisplayName,
		IsVerified:  true,
	}
}
