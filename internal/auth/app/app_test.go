package app

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/totpgate/pkg/authsdk"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	return Config{
		Issuer:               "TOTPGate",
		Store:                StoreSQLite,
		DatabaseFile:         filepath.Join(dir, "auth.db"),
		SessionBackend:       SessionBackendStore,
		PepperFile:           filepath.Join(dir, "secrets", "pepper"),
		ChallengeKeyFile:     filepath.Join(dir, "secrets", "challenge.key"),
		PendingTTL:           10 * time.Minute,
		SessionTTL:           time.Hour,
		ChallengeTTL:         10 * time.Minute,
		TOTPSkew:             1,
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Minute,
	}
}

func codeFor(t *testing.T, uri string) string {
	t.Helper()
	key, err := otp.NewKeyFromURL(uri)
	require.NoError(t, err)
	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)
	return code
}

func TestApplication_SignupAndLogin(t *testing.T) {
	cfg := testConfig(t)

	application, err := New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	defer srv.Close()

	ctx := t.Context()
	c := authsdk.NewSDKClient(srv.URL)

	signup, err := c.Signup(ctx, authsdk.SignupRequest{Email: "alice@x.com", Password: "hunter22!", Name: "Alice"})
	require.NoError(t, err)

	acct, err := c.VerifySignup(ctx, signup.Token, codeFor(t, signup.OTPAuthURL))
	require.NoError(t, err)
	require.True(t, acct.IsVerified)

	login, err := c.Login(ctx, "alice@x.com", "hunter22!")
	require.NoError(t, err)
	require.Equal(t, authsdk.LoginStateAwaitingChallenge, login.State)

	sess, err := c.VerifyLogin(ctx, login.Challenge, codeFor(t, signup.OTPAuthURL))
	require.NoError(t, err)
	require.Equal(t, acct.ID, sess.Account.ID)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice@x.com", me.Email)

	require.NoError(t, application.Shutdown())
}

func TestApplication_SecretsSurviveRestart(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, first.Shutdown())

	pepper, err := os.ReadFile(cfg.PepperFile)
	require.NoError(t, err)
	info, err := os.Stat(cfg.ChallengeKeyFile)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := New(cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, second.Shutdown()) }()

	require.Equal(t, string(pepper), second.secrets.Pepper)
}

// Embedders serve Handler() themselves and never call Run.
func TestApplication_ShutdownWithoutRun(t *testing.T) {
	application, err := New(testConfig(t))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- application.Shutdown() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown blocked without Run")
	}
}

func TestNew_FailsOnUnusableSecretPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.PepperFile = ""

	_, err := New(cfg)
	require.ErrorContains(t, err, "pepper")
}
