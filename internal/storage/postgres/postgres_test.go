package postgres

import (
	"context"
	"testing"
	"time"

	"bankroll/internal/storage"
	"bankroll/internal/storage/storagetest"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// startContainer runs a throwaway PostgreSQL and returns its connection URL.
func startContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("bankroll_test"),
		tcpostgres.WithUsername("test_user"),
		tcpostgres.WithPassword("test_password"),
		tcpostgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"test":      "bankroll-postgres",
			"test-name": t.Name(),
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func TestRepositoryContract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	url := startContainer(t)

	storagetest.Run(t, func(t *testing.T) storage.Gateway {
		repo, err := Connect(context.Background(), url)
		require.NoError(t, err)
		_, err = repo.pool.Exec(context.Background(), `TRUNCATE bets, stocks RESTART IDENTITY`)
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}
