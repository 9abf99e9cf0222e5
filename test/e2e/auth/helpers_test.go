package auth_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/totpgate/pkg/authsdk"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, account operations, and assertions.
 */

const (
	testImageName  = "totpgate-test:latest"
	redisImageName = "redis:7-alpine"

	testEmail    = "alice@example.com"
	testPassword = "Alice123!pass"
	testName     = "Alice"
)

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stdout, "skipping end-to-end tests in short mode")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building TOTPGate Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up TOTPGate Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

func serviceEnv() map[string]string {
	return map[string]string{
		"AUTH_DATABASE_FILE":      "/data/auth.db",
		"AUTH_PEPPER_FILE":        "/data/pepper",
		"AUTH_CHALLENGE_KEY_FILE": "/data/challenge.key",
		"AUTH_ISSUER":             "TOTPGate",
		"COOKIE_SECURE":           "false",
		"ENV":                     "test",
		"LOG_LEVEL":               "info",
		"LOG_FORMAT":              "json",
	}
}

// setupAuthContainer starts the service with sessions in SQLite and
// returns the base URL.
func setupAuthContainer(t *testing.T) (string, func()) {
	t.Helper()
	return startService(t, serviceEnv(), nil)
}

// setupAuthContainerWithRedis starts Redis and the service on a shared
// network with SESSION_BACKEND=redis.
func setupAuthContainerWithRedis(t *testing.T) (string, func()) {
	t.Helper()
	ctx := context.Background()

	nw, err := network.New(ctx)
	require.NoError(t, err)

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          redisImageName,
			ExposedPorts:   []string{"6379/tcp"},
			Networks:       []string{nw.Name},
			NetworkAliases: map[string][]string{nw.Name: {"redis"}},
			WaitingFor:     wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	env := serviceEnv()
	env["SESSION_BACKEND"] = "redis"
	env["REDIS_ADDR"] = "redis:6379"

	baseURL, stopService := startService(t, env, []string{nw.Name})

	cleanup := func() {
		stopService()
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
		if err := nw.Remove(ctx); err != nil {
			t.Logf("failed to remove network: %v", err)
		}
	}
	return baseURL, cleanup
}

func startService(t *testing.T, env map[string]string, networks []string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		Networks:     networks,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// currentCode derives the code an authenticator app would show right now.
func currentCode(t *testing.T, otpauthURL string) string {
	t.Helper()
	key, err := otp.NewKeyFromURL(otpauthURL)
	require.NoError(t, err)

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)
	return code
}

// signupAndConfirm registers an account and confirms its first code.
// Returns the account and the otpauth URL of its secret.
func signupAndConfirm(t *testing.T, client *authsdk.SDKClient, email, password, name string) (*authsdk.Account, string) {
	t.Helper()

	signup, err := client.Signup(t.Context(), authsdk.SignupRequest{Email: email, Password: password, Name: name})
	require.NoError(t, err, "Signup should succeed")
	require.NotEmpty(t, signup.Token, "Signup token should not be empty")
	require.NotEmpty(t, signup.OTPAuthURL, "otpauth URL should not be empty")

	acct, err := client.VerifySignup(t.Context(), signup.Token, currentCode(t, signup.OTPAuthURL))
	require.NoError(t, err, "Signup verification should succeed")
	require.True(t, acct.IsVerified)

	return acct, signup.OTPAuthURL
}

// performLogin runs both login steps and leaves the session cookie in the
// client's jar.
func performLogin(t *testing.T, client *authsdk.SDKClient, email, password, otpauthURL string) *authsdk.SessionResponse {
	t.Helper()

	login, err := client.Login(t.Context(), email, password)
	require.NoError(t, err, "Password step should succeed")
	require.True(t, login.RequireTOTP)
	require.Equal(t, authsdk.LoginStateAwaitingChallenge, login.State)

	sess, err := client.VerifyLogin(t.Context(), login.Challenge, currentCode(t, otpauthURL))
	require.NoError(t, err, "TOTP step should succeed")
	require.NotEmpty(t, client.SessionCookie(), "Session cookie should be set")

	return sess
}

// assertAPIError checks that err carries the expected API error code.
func assertAPIError(t *testing.T, err error, want *authsdk.APIError, context string) {
	t.Helper()
	require.Error(t, err, context)
	require.ErrorIs(t, err, want, "%s - got: %v", context, err)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
