package domain

import "time"

// Account is the durable user record.
type Account struct {
	ID                string
	Email             string // unique, compared exactly as stored
	DisplayName       string
	PasswordHash      string // argon2id PHC string
	TOTPSecret        string // confirmed base32 secret, empty until enrolled
	PendingTOTPSecret string // base32 secret awaiting its first valid code
	IsVerified        bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Enrolled reports whether the account may obtain a session.
func (a *Account) Enrolled() bool {
	return a.IsVerified && a.TOTPSecret != ""
}

// Summary is the identity projection exposed to clients and sessions.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		IsVerified:  a.IsVerified,
	}
}

// AccountSummary never carries secrets or hashes.
type AccountSummary struct {
	ID          string
	Email       string
	DisplayName string
	IsVerified  bool
}
