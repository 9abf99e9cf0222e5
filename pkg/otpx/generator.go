// Package otpx wraps pquerna/otp with the TOTP policy used by the service:
// 160-bit SHA1 secrets, 6 digits, 30 second steps and a one step window.
package otpx

import (
	"bytes"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"io"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the length of one time step in seconds.
	Period = 30
	// SecretSize is the amount of random secret material in bytes (160 bits).
	SecretSize = 20
	// Digits is the code length.
	Digits = otp.DigitsSix

	qrCodeSize = 256
)

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Enrollment is a freshly minted shared secret and the otpauth:// URI an
// authenticator app consumes to start producing codes for it.
type Enrollment struct {
	Secret string // base32, no padding
	URI    string
}

// Generator produces TOTP secrets and enrollment URIs for one issuer.
type Generator struct {
	Issuer string

	// Rand overrides the randomness source. Nil means crypto/rand.
	Rand io.Reader
}

// Generate creates a new secret for label (usually the account email). A
// failing randomness source aborts with an error.
func (g *Generator) Generate(label string) (Enrollment, error) {
	key, err := totp.Generate(g.opts(label, nil))
	if err != nil {
		return Enrollment{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}
	return Enrollment{Secret: key.Secret(), URI: key.URL()}, nil
}

// Rebuild recreates the enrollment URI for an existing base32 secret.
func (g *Generator) Rebuild(label, secret string) (Enrollment, error) {
	raw, err := secretEncoding.DecodeString(strings.ToUpper(strings.TrimRight(secret, "=")))
	if err != nil {
		return Enrollment{}, fmt.Errorf("invalid base32 secret: %w", err)
	}
	if len(raw) == 0 {
		return Enrollment{}, errors.New("empty secret")
	}

	key, err := totp.Generate(g.opts(label, raw))
	if err != nil {
		return Enrollment{}, fmt.Errorf("failed to rebuild TOTP key: %w", err)
	}
	return Enrollment{Secret: key.Secret(), URI: key.URL()}, nil
}

func (g *Generator) opts(label string, secret []byte) totp.GenerateOpts {
	return totp.GenerateOpts{
		Issuer:      g.Issuer,
		AccountName: label,
		Period:      Period,
		SecretSize:  SecretSize,
		Secret:      secret,
		Digits:      Digits,
		Algorithm:   otp.AlgorithmSHA1,
		Rand:        g.Rand,
	}
}

// QRCodeDataURL renders uri as a PNG QR code and returns it as a data: URL
// that can be dropped straight into an <img src>.
func QRCodeDataURL(uri string) (string, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse enrollment uri: %w", err)
	}

	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return "", fmt.Errorf("failed to render qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
