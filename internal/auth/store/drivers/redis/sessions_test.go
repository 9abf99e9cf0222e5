package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/domain"
	"github.com/aussiebroadwan/totpgate/internal/auth/store"
	"github.com/aussiebroadwan/totpgate/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/totpgate/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisSessions(t *testing.T) {
	addr := setupRedis(t)

	client, err := redis.Connect(context.Background(), addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sessions := redis.NewSessions(client)
	require.NoError(t, sessions.Ping(context.Background()))

	storetest.RunSessions(t, sessions, func(*testing.T) domain.Account {
		return storetest.NewAccount()
	}, true)

	t.Run("expired on arrival is not stored", func(t *testing.T) {
		ctx := context.Background()
		s := domain.Session{
			TokenHash: "already-expired",
			AccountID: "01A",
			CreatedAt: time.Now().Add(-2 * time.Hour),
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		require.NoError(t, sessions.CreateSession(ctx, s))
		_, err := sessions.GetSessionByHash(ctx, s.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("key expires with the session", func(t *testing.T) {
		ctx := context.Background()
		s := domain.Session{
			TokenHash: "short-lived",
			AccountID: "01A",
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(1500 * time.Millisecond),
		}
		require.NoError(t, sessions.CreateSession(ctx, s))

		require.Eventually(t, func() bool {
			_, err := sessions.GetSessionByHash(ctx, s.TokenHash)
			return err != nil
		}, 5*time.Second, 100*time.Millisecond)
	})
}
