package mongodb_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/domain"
	"github.com/aussiebroadwan/totpgate/internal/auth/store/drivers/mongodb"
	"github.com/aussiebroadwan/totpgate/internal/auth/store/storetest"
	"github.com/aussiebroadwan/totpgate/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupMongo starts a throwaway MongoDB and returns its connection URI.
func setupMongo(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB container test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor: wait.ForListeningPort("27017/tcp").
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
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func TestMongoStore(t *testing.T) {
	uri := setupMongo(t)

	st, err := mongodb.NewStore(context.Background(), uri, "totpgate_test_"+idx.New().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.ApplyMigrations(), "index creation is idempotent")
	require.NoError(t, st.Ping(context.Background()))

	t.Run("accounts", func(t *testing.T) {
		storetest.RunAccounts(t, st.Accounts())
	})

	t.Run("sessions", func(t *testing.T) {
		storetest.RunSessions(t, st.Sessions(), func(t *testing.T) domain.Account {
			a := storetest.NewAccount()
			require.NoError(t, st.Accounts().CreateAccount(context.Background(), a))
			return a
		}, false)
	})
}
