package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultChallengeTTL bounds how long the second login step may take.
const DefaultChallengeTTL = 10 * time.Minute

// Stage says which second step a challenge token unlocks.
type Stage string

const (
	// StageChallenge: account is enrolled, verify against the confirmed secret.
	StageChallenge Stage = "challenge"
	// StageEnrollment: account has a pending secret that still needs confirming.
	StageEnrollment Stage = "enrollment"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s == StageChallenge || s == StageEnrollment
}

// Claims carried by a login challenge handle. Subject is the account id.
type Claims struct {
	jwt.RegisteredClaims

	Stage Stage `json:"stage"`
}

// NewChallengeClaims builds claims for the account handle handed out after
// the password step.
func NewChallengeClaims(subject string, stage Stage, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Stage: stage,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
