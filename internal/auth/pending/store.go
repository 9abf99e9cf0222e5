// Package pending holds signups that are waiting for their first TOTP code.
// Entries live in process memory only and expire after a fixed TTL.
package pending

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/domain"
	"github.com/aussiebroadwan/totpgate/pkg/cryptox"
)

// DefaultTTL is how long a signup may take to confirm its secret.
const DefaultTTL = 10 * time.Minute

// ErrNotFound covers unknown, consumed and expired tokens alike.
var ErrNotFound = errors.New("pending: registration not found or expired")

type entry struct {
	// claim serialises Claim calls for one token.
	claim sync.Mutex
	gone  atomic.Bool

	reg domain.PendingRegistration
}

// Store is a concurrent in-memory map of pending registrations.
type Store struct {
	mu        sync.Mutex
	entries   map[string]*entry
	deadlines deadlineHeap

	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		ttl:     DefaultTTL,
		now:     time.Now,
		newToken: func() (string, error) {
			return cryptox.GenerateToken(cryptox.TokenSize128)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured lifetime of an entry.
func (s *Store) TTL() time.Duration { return s.ttl }

// Put stores reg under a freshly generated token and returns the token with
// the deadline the entry was recorded under. CreatedAt and ExpiresAt are set
// by the store.
func (s *Store) Put(ctx context.Context, reg domain.PendingRegistration) (string, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	reg.CreatedAt = now
	reg.ExpiresAt = now.Add(s.ttl)
	e := &entry{reg: reg}

	s.mu.Lock()
	defer s.mu.Unlock()

	for range 3 {
		token, err := s.newToken()
		if err != nil {
			return "", time.Time{}, fmt.Errorf("failed to generate pending token: %w", err)
		}
		if _, taken := s.entries[token]; taken {
			continue
		}
		s.entries[token] = e
		heap.Push(&s.deadlines, deadline{token: token, at: reg.ExpiresAt, e: e})
		return token, reg.ExpiresAt, nil
	}
	return "", time.Time{}, errors.New("failed to generate a unique pending token")
}

// Get returns the registration for token. Expired entries are evicted on
// the spot and reported as ErrNotFound.
func (s *Store) Get(ctx context.Context, token string) (domain.PendingRegistration, error) {
	if err := ctx.Err(); err != nil {
		return domain.PendingRegistration{}, err
	}

	e, err := s.lookup(token)
	if err != nil {
		return domain.PendingRegistration{}, err
	}
	return e.reg, nil
}

// Delete removes token. Deleting an unknown token is not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	e, ok := s.entries[token]
	if ok {
		delete(s.entries, token)
	}
	s.mu.Unlock()

	if ok {
		e.gone.Store(true)
	}
	return nil
}

// Claim runs fn with the registration while holding the token's lock. If fn
// returns nil the entry is removed before the lock is released, so at most
// one Claim per token ever succeeds. If fn fails the entry is left intact
// and fn's error is returned unchanged.
func (s *Store) Claim(ctx context.Context, token string, fn func(domain.PendingRegistration) error) error {
	e, err := s.lookup(token)
	if err != nil {
		return err
	}

	e.claim.Lock()
	defer e.claim.Unlock()

	// Re-check under the lock: a previous holder may have consumed it, or
	// the deadline may have passed while we waited.
	if e.gone.Load() {
		return ErrNotFound
	}
	if !s.now().Before(e.reg.ExpiresAt) {
		s.evict(token, e)
		return ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := fn(e.reg); err != nil {
		return err
	}

	s.evict(token, e)
	return nil
}

// Sweep evicts every entry whose deadline has passed and returns how many
// were removed.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for s.deadlines.Len() > 0 && !now.Before(s.deadlines[0].at) {
		d := heap.Pop(&s.deadlines).(deadline)
		if cur, ok := s.entries[d.token]; ok && cur == d.e {
			delete(s.entries, d.token)
			d.e.gone.Store(true)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries held, including expired entries not
// yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) lookup(token string) (*entry, error) {
	s.mu.Lock()
	e, ok := s.entries[token]
	s.mu.Unlock()

	if !ok || e.gone.Load() {
		return nil, ErrNotFound
	}
	if !s.now().Before(e.reg.ExpiresAt) {
		s.evict(token, e)
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Store) evict(token string, e *entry) {
	e.gone.Store(true)

	s.mu.Lock()
	if cur, ok := s.entries[token]; ok && cur == e {
		delete(s.entries, token)
	}
	s.mu.Unlock()
}
