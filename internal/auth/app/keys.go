package app

import (
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/totpgate/pkg/cryptox"
	"github.com/aussiebroadwan/totpgate/pkg/jwtx"
)

// Secrets holds the process-wide key material loaded at startup.
type Secrets struct {
	// Pepper is mixed into every password hash. Changing it invalidates
	// all stored passwords.
	Pepper string

	// Challenges signs and verifies the login challenge handed out between
	// the password step and the TOTP step.
	Challenges *jwtx.HS256
}

// InitSecrets loads the pepper and the challenge signing key from their
// files, creating either on first start.
//
// Both files must be kept across restarts and shared between replicas:
//   - a new pepper locks every existing account out;
//   - a new challenge key only invalidates logins that are mid-flight.
func InitSecrets(cfg Config, logger *slog.Logger) (Secrets, error) {
	pepper, err := cryptox.LoadOrCreateSecret(cfg.PepperFile)
	if err != nil {
		return Secrets{}, fmt.Errorf("failed to load pepper: %w", err)
	}
	logger.Info("password pepper loaded", "path", cfg.PepperFile)

	encoded, err := cryptox.LoadOrCreateSecret(cfg.ChallengeKeyFile)
	if err != nil {
		return Secrets{}, fmt.Errorf("failed to load challenge key: %w", err)
	}
	key, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Secrets{}, fmt.Errorf("challenge key in %s is not base64url: %w", cfg.ChallengeKeyFile, err)
	}

	challenges, err := jwtx.NewHS256(key, cfg.Issuer)
	if err != nil {
		return Secrets{}, fmt.Errorf("failed to initialize challenge signer: %w", err)
	}
	logger.Info("challenge signing key loaded",
		"path", cfg.ChallengeKeyFile,
		"algorithm", challenges.Alg(),
		"issuer", cfg.Issuer,
	)

	return Secrets{Pepper: pepper, Challenges: challenges}, nil
}
