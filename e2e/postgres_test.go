package e2e_test

import (
	"context"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	postgresOnce    sync.Once
	postgresCleanup func()
	postgresDSN     string
	postgresErr     error
)

// getSharedPostgresDatabase returns the DSN of a PostgreSQL container shared
// by every E2E test. The container is terminated in TestMain.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	postgresOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			postgresErr = err
			return
		}

		postgresCleanup = func() {
			_ = testcontainers.TerminateContainer(pgContainer)
		}

		postgresDSN, postgresErr = pgContainer.ConnectionString(ctx, "sslmode=disable")
	})

	if postgresErr != nil {
		t.Fatalf("failed to start postgres container: %v", postgresErr)
	}

	return postgresDSN
}
