package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// GetPostgresDSN returns a DSN for a shared Postgres container. The caller
// must import a "pgx" database/sql driver.
func GetPostgresDSN(t *testing.T) string {
	t.Helper()
	skipShort(t, "postgres")

	pgOnce.Do(func() {
		// Give generous timeout in CI environments
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		postgresC, err := testcontainers.Run(
			ctx, "postgres:16",
			testcontainers.WithExposedPorts("5432/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForAll(
					wait.ForListeningPort("5432/tcp"),
					wait.ForLog("ready to accept connections"),
					wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
						return fmt.Sprintf("postgres://flowcraft:flowcraft@%s:%s/flowcraft_test?sslmode=disable", host, port.Port())
					}).WithQuery("SELECT 1"),
				).WithDeadline(2*time.Minute),
			),
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_USER":     "flowcraft",
				"POSTGRES_PASSWORD": "flowcraft",
				"POSTGRES_DB":       "flowcraft_test",
			}),
		)
		if err != nil {
			pgErr = err
			return
		}
		t.Cleanup(func() {
			testcontainers.CleanupContainer(t, postgresC)
		})

		endpoint, err := endpointOrTerminate(ctx, postgresC, "")
		if err != nil {
			pgErr = err
			return
		}
		pgDSN = fmt.Sprintf("postgres://flowcraft:flowcraft@%s/flowcraft_test?sslmode=disable", endpoint)
	})

	requireBackend(t, "postgres", pgErr)
	return pgDSN
}
