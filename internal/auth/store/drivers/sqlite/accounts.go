package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/domain"
	"github.com/aussiebroadwan/totpgate/internal/auth/store"
)

const accountColumns = `id, email, display_name, password_hash, totp_secret,
	pending_totp_secret, is_verified, created_at, updated_at`

type accountsRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	now := r.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Email,
		a.DisplayName,
		a.PasswordHash,
		mapStringNull(a.TOTPSecret),
		mapStringNull(a.PendingTOTPSecret),
		a.IsVerified,
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *accountsRepo) SetPendingTOTPSecret(ctx context.Context, id, secret string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET pending_totp_secret = ?, updated_at = ?
		WHERE id = ? AND (is_verified = 0 OR totp_secret IS NULL)`,
		mapStringNull(secret), r.now(), id,
	)
	if err != nil {
		return err
	}
	return r.checkConditional(ctx, res, id)
}

func (r *accountsRepo) PromotePendingTOTPSecret(ctx context.Context, id, expected string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET totp_secret = pending_totp_secret,
		    pending_totp_secret = NULL,
		    is_verified = 1,
		    updated_at = ?
		WHERE id = ? AND pending_totp_secret = ?`,
		r.now(), id, expected,
	)
	if err != nil {
		return err
	}
	return r.checkConditional(ctx, res, id)
}

// checkConditional tells "no such account" apart from "condition not met"
// after a conditional UPDATE touched no rows.
func (r *accountsRepo) checkConditional(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = ?`, id).Scan(&one)
	if err != nil {
		return mapNotFound(err)
	}
	return store.ErrConflict
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a       domain.Account
		secret  sql.NullString
		pending sql.NullString
	)
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.DisplayName,
		&a.PasswordHash,
		&secret,
		&pending,
		&a.IsVerified,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.TOTPSecret = mapNullString(secret)
	a.PendingTOTPSecret = mapNullString(pending)
	return a, nil
}
