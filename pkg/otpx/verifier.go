package otpx

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

var (
	// ErrInvalidCodeFormat means the submitted code is not six decimal digits
	// once whitespace is removed. It is a malformed request, not a wrong code.
	ErrInvalidCodeFormat = errors.New("otpx: code must be 6 digits")

	// ErrInvalidCode means the code is well formed but matches no time step
	// inside the window.
	ErrInvalidCode = errors.New("otpx: invalid code")
)

// DefaultSkew accepts the previous and next time step, tolerating roughly
// 30 seconds of clock drift either way.
const DefaultSkew = 1

// Verifier checks submitted codes against a shared secret. It holds no
// state. The zero value accepts the current step only; set Skew to
// DefaultSkew for the usual one step window.
type Verifier struct {
	// Skew is the number of steps accepted on each side of the current one.
	Skew uint

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Verify returns nil when code matches the secret at T-skew..T+skew.
func (v *Verifier) Verify(secret, code string) error {
	code, err := NormalizeCode(code)
	if err != nil {
		return err
	}

	candidates, err := v.candidates(secret)
	if err != nil {
		// A stored secret that does not decode can never match.
		return ErrInvalidCode
	}

	if !matchAny(code, candidates) {
		return ErrInvalidCode
	}
	return nil
}

// NormalizeCode strips all whitespace and checks the result is exactly six
// ASCII digits.
func NormalizeCode(code string) (string, error) {
	code = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code)

	if len(code) != Digits.Length() {
		return "", ErrInvalidCodeFormat
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return "", ErrInvalidCodeFormat
		}
	}
	return code, nil
}

// candidates computes the codes for every counter in the window.
func (v *Verifier) candidates(secret string) ([]string, error) {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	skew := v.Skew

	step := now().Unix() / Period
	opts := hotp.ValidateOpts{
		Digits:    Digits,
		Algorithm: otp.AlgorithmSHA1,
	}

	out := make([]string, 0, 2*skew+1)
	for offset := -int64(skew); offset <= int64(skew); offset++ {
		counter := step + offset
		if counter < 0 {
			continue
		}
		c, err := hotp.GenerateCodeCustom(secret, uint64(counter), opts)
		if err != nil {
			return nil, fmt.Errorf("failed to compute code: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// matchAny compares code against every candidate without stopping at the
// first hit, so the time taken does not reveal which step matched.
func matchAny(code string, candidates []string) bool {
	matched := 0
	for _, c := range candidates {
		matched |= subtle.ConstantTimeCompare([]byte(code), []byte(c))
	}
	return matched == 1
}
