package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict means a conditional update found the record in a
	// different state than the caller expected.
	ErrConflict = errors.New("store: conflicting update")
)

// Store is the root data access interface. Concrete drivers (sqlite, mongo)
// implement it and expose sub-repositories to keep concerns tidy. Every
// write the services perform touches a single record, so drivers rely on
// single-record atomicity (unique indexes, conditional updates) rather than
// multi-statement transactions.
type Store interface {
	Accounts() Accounts
	Sessions() Sessions

	// ApplyMigrations brings the schema (tables, indexes) up to date.
	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Accounts interface {
	// GetAccountByID returns ErrNotFound for an unknown id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail matches the email exactly as stored.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by the app via
	// ULID). Returns ErrAlreadyExists if the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// SetPendingTOTPSecret stores a secret awaiting confirmation. Returns
	// ErrConflict if the account is already enrolled.
	SetPendingTOTPSecret(ctx context.Context, id, secret string) error

	// PromotePendingTOTPSecret atomically moves the pending secret to the
	// confirmed one and marks the account verified, but only while the
	// pending secret still equals expected. Otherwise ErrConflict.
	PromotePendingTOTPSecret(ctx context.Context, id, expected string) error
}

type Sessions interface {
	// CreateSession stores a session keyed by its token fingerprint.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByHash returns ErrNotFound for unknown sessions. Drivers
	// without native expiry may return a session past ExpiresAt; callers
	// must check it.
	GetSessionByHash(ctx context.Context, tokenHash string) (domain.Session, error)

	// DeleteSession is idempotent.
	DeleteSession(ctx context.Context, tokenHash string) error

	// DeleteExpiredSessions removes sessions with ExpiresAt at or before
	// now and returns how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
