package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/totpgate/pkg/authsdk"
)

// TestRedisSessionBackend runs a login against sessions kept in Redis.
func TestRedisSessionBackend(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithRedis(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.Equal(t, "ok", health.Checks.Sessions)

	acct, otpauthURL := signupAndConfirm(t, client, testEmail, testPassword, testName)
	performLogin(t, client, testEmail, testPassword, otpauthURL)

	me, err := client.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, acct.ID, me.ID)

	require.NoError(t, client.Logout(t.Context()))
	_, err = client.Me(t.Context())
	assertAPIError(t, err, authsdk.ErrUnauthorized, "Session should be deleted from redis")
}
