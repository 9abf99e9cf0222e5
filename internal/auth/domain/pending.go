package domain

import "time"

// PendingRegistration is a signup that has not yet proven possession of its
// TOTP secret. It lives in memory only.
type PendingRegistration struct {
	Email        string
	DisplayName  string
	PasswordHash string
	TOTPSecret   string // base32
	CreatedAt    time.Time
	ExpiresAt    time.Time
}
