// Package storetest holds the behaviour every store driver must share.
// Driver test files call these against a live backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/domain"
	"github.com/aussiebroadwan/totpgate/internal/auth/store"
	"github.com/aussiebroadwan/totpgate/pkg/cryptox"
	"github.com/aussiebroadwan/totpgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

// NewAccount returns an unsaved, unverified account with a unique id and email.
func NewAccount() domain.Account {
	id := idx.New().String()
	return domain.Account{
		ID:           id,
		Email:        "user-" + id + "@x.com",
		DisplayName:  "Ann",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	}
}

// RunAccounts exercises store.Accounts.
func RunAccounts(t *testing.T, accounts store.Accounts) {
	t.Run("create and get", func(t *testing.T) {
		ctx := context.Background()
		a := NewAccount()
		a.TOTPSecret = "JBSWY3DPEHPK3PXP"
		a.IsVerified = true

		require.NoError(t, accounts.CreateAccount(ctx, a))

		byID, err := accounts.GetAccountByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, a.Email, byID.Email)
		require.Equal(t, a.DisplayName, byID.DisplayName)
		require.Equal(t, a.PasswordHash, byID.PasswordHash)
		require.Equal(t, a.TOTPSecret, byID.TOTPSecret)
		require.Empty(t, byID.PendingTOTPSecret)
		require.True(t, byID.IsVerified)
		require.True(t, byID.Enrolled())
		require.False(t, byID.CreatedAt.IsZero())

		byEmail, err := accounts.GetAccountByEmail(ctx, a.Email)
		require.NoError(t, err)
		require.Equal(t, a.ID, byEmail.ID)
	})

	t.Run("unknown account", func(t *testing.T) {
		ctx := context.Background()
		_, err := accounts.GetAccountByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = accounts.GetAccountByEmail(ctx, "nobody@x.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		ctx := context.Background()
		a := NewAccount()
		require.NoError(t, accounts.CreateAccount(ctx, a))

		dup := NewAccount()
		dup.Email = a.Email
		require.ErrorIs(t, accounts.CreateAccount(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("email is case sensitive", func(t *testing.T) {
		ctx := context.Background()
		a := NewAccount()
		a.Email = "case-" + a.ID + "@x.com"
		require.NoError(t, accounts.CreateAccount(ctx, a))

		_, err := accounts.GetAccountByEmail(ctx, "CASE-"+a.ID+"@X.COM")
		require.ErrorIs(t, err, store.ErrNotFound)

		upper := NewAccount()
		upper.Email = "CASE-" + a.ID + "@x.com"
		require.NoError(t, accounts.CreateAccount(ctx, upper))
	})

	t.Run("pending secret promotion", func(t *testing.T) {
		ctx := context.Background()
		a := NewAccount()
		require.NoError(t, accounts.CreateAccount(ctx, a))

		require.NoError(t, accounts.SetPendingTOTPSecret(ctx, a.ID, "PENDINGAAAAAAAAA"))
		require.NoError(t, accounts.SetPendingTOTPSecret(ctx, a.ID, "PENDINGBBBBBBBBB"), "unenrolled accounts may rotate")

		got, err := accounts.GetAccountByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "PENDINGBBBBBBBBB", got.PendingTOTPSecret)
		require.False(t, got.Enrolled())

		require.ErrorIs(t, accounts.PromotePendingTOTPSecret(ctx, a.ID, "PENDINGAAAAAAAAA"), store.ErrConflict)
		require.NoError(t, accounts.PromotePendingTOTPSecret(ctx, a.ID, "PENDINGBBBBBBBBB"))

		got, err = accounts.GetAccountByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "PENDINGBBBBBBBBB", got.TOTPSecret)
		require.Empty(t, got.PendingTOTPSecret)
		require.True(t, got.IsVerified)
		require.True(t, got.Enrolled())

		require.ErrorIs(t, accounts.PromotePendingTOTPSecret(ctx, a.ID, "PENDINGBBBBBBBBB"), store.ErrConflict,
			"promotion happens at most once")
		require.ErrorIs(t, accounts.SetPendingTOTPSecret(ctx, a.ID, "PENDINGCCCCCCCCC"), store.ErrConflict,
			"enrolled accounts keep their secret")
	})

	t.Run("conditional updates on unknown account", func(t *testing.T) {
		ctx := context.Background()
		id := idx.New().String()
		require.ErrorIs(t, accounts.SetPendingTOTPSecret(ctx, id, "X"), store.ErrNotFound)
		require.ErrorIs(t, accounts.PromotePendingTOTPSecret(ctx, id, "X"), store.ErrNotFound)
	})
}

// RunSessions exercises store.Sessions. newAccount must return an account
// that sessions may reference. nativeExpiry marks backends that drop keys on
// their own and treat DeleteExpiredSessions as a no-op.
func RunSessions(t *testing.T, sessions store.Sessions, newAccount func(t *testing.T) domain.Account, nativeExpiry bool) {
	newSession := func(t *testing.T, expiresIn time.Duration) domain.Session {
		t.Helper()
		token, err := cryptox.GenerateToken(cryptox.TokenSize256)
		require.NoError(t, err)
		a := newAccount(t)
		now := time.Now().UTC()
		return domain.Session{
			TokenHash:   cryptox.FingerprintToken(token),
			AccountID:   a.ID,
			Email:       a.Email,
			DisplayName: a.DisplayName,
			CreatedAt:   now,
			ExpiresAt:   now.Add(expiresIn),
		}
	}

	t.Run("create get delete", func(t *testing.T) {
		ctx := context.Background()
		s := newSession(t, time.Hour)
		require.NoError(t, sessions.CreateSession(ctx, s))

		got, err := sessions.GetSessionByHash(ctx, s.TokenHash)
		require.NoError(t, err)
		require.Equal(t, s.AccountID, got.AccountID)
		require.Equal(t, s.Email, got.Email)
		require.Equal(t, s.DisplayName, got.DisplayName)
		require.WithinDuration(t, s.ExpiresAt, got.ExpiresAt, time.Second)

		require.NoError(t, sessions.DeleteSession(ctx, s.TokenHash))
		_, err = sessions.GetSessionByHash(ctx, s.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, sessions.DeleteSession(ctx, s.TokenHash), "delete is idempotent")
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := sessions.GetSessionByHash(context.Background(), cryptox.FingerprintToken("never-issued"))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate hash", func(t *testing.T) {
		ctx := context.Background()
		s := newSession(t, time.Hour)
		require.NoError(t, sessions.CreateSession(ctx, s))
		require.ErrorIs(t, sessions.CreateSession(ctx, s), store.ErrAlreadyExists)
	})

	t.Run("delete expired", func(t *testing.T) {
		ctx := context.Background()
		soon := newSession(t, time.Hour)
		later := newSession(t, 3*time.Hour)
		require.NoError(t, sessions.CreateSession(ctx, soon))
		require.NoError(t, sessions.CreateSession(ctx, later))

		n, err := sessions.DeleteExpiredSessions(ctx, time.Now().Add(2*time.Hour))
		require.NoError(t, err)

		_, err = sessions.GetSessionByHash(ctx, later.TokenHash)
		require.NoError(t, err, "unexpired sessions survive the sweep")

		if nativeExpiry {
			require.Zero(t, n, "backend expires keys itself")
			return
		}
		require.GreaterOrEqual(t, n, int64(1))
		_, err = sessions.GetSessionByHash(ctx, soon.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
