package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Credentials configured on the Neo4j test container.
const (
	Neo4jUser     = "neo4j"
	Neo4jPassword = "flowcraft-test"
)

var (
	neo4jOnce sync.Once
	neo4jURI  string
	neo4jErr  error
)

// GetNeo4jURI returns a neo4j:// URI for a shared Neo4j container. Use
// Neo4jUser and Neo4jPassword to authenticate.
func GetNeo4jURI(t *testing.T) string {
	t.Helper()
	skipShort(t, "neo4j")

	neo4jOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		neo4jC, err := testcontainers.Run(
			ctx, "neo4j:5",
			testcontainers.WithExposedPorts("7687/tcp"),
			testcontainers.WithEnv(map[string]string{
				"NEO4J_AUTH": Neo4jUser + "/" + Neo4jPassword,
			}),
			testcontainers.WithWaitStrategy(
				wait.ForAll(
					wait.ForListeningPort("7687/tcp"),
					wait.ForLog("Started."),
				).WithDeadline(2*time.Minute),
			),
		)
		if err != nil {
			neo4jErr = err
			return
		}
		t.Cleanup(func() {
			testcontainers.CleanupContainer(t, neo4jC)
		})

		endpoint, err := endpointOrTerminate(ctx, neo4jC, "")
		if err != nil {
			neo4jErr = err
			return
		}
		neo4jURI = "neo4j://" + endpoint
	})

	requireBackend(t, "neo4j", neo4jErr)
	return neo4jURI
}
