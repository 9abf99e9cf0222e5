// Package redis keeps sessions in Redis as JSON values under
// "session:<token hash>" with a TTL matching the session's expiry, so the
// server evicts them without a sweep.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/domain"
	"github.com/aussiebroadwan/totpgate/internal/auth/store"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

type sessionValue struct {
	AccountID   string    `json:"account_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Sessions implements store.Sessions.
type Sessions struct {
	client redis.UniversalClient
	now    func() time.Time
}

var _ store.Sessions = (*Sessions)(nil)

// Connect opens a client for addr and verifies it with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// NewSessions wraps an existing client.
func NewSessions(client redis.UniversalClient) *Sessions {
	return &Sessions{client: client, now: time.Now}
}

// Ping verifies the server is reachable.
func (s *Sessions) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Sessions) CreateSession(ctx context.Context, sess domain.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		// Already expired; storing it would only let it resolve briefly.
		return nil
	}

	raw, err := json.Marshal(sessionValue{
		AccountID:   sess.AccountID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
		CreatedAt:   sess.CreatedAt.UTC(),
		ExpiresAt:   sess.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+sess.TokenHash, raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *Sessions) GetSessionByHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, keyPrefix+tokenHash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, store.ErrNotFound
		}
		return domain.Session{}, err
	}

	var v sessionValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return domain.Session{
		TokenHash:   tokenHash,
		AccountID:   v.AccountID,
		Email:       v.Email,
		DisplayName: v.DisplayName,
		CreatedAt:   v.CreatedAt,
		ExpiresAt:   v.ExpiresAt,
	}, nil
}

func (s *Sessions) DeleteSession(ctx context.Context, tokenHash string) error {
	return s.client.Del(ctx, keyPrefix+tokenHash).Err()
}

// DeleteExpiredSessions is a no-op: keys carry their own TTL.
func (s *Sessions) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}
