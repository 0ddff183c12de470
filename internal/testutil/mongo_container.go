package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	mongoOnce sync.Once
	mongoURI  string
	mongoErr  error
)

// GetMongoURI returns a mongodb:// URI for a shared MongoDB container.
func GetMongoURI(t *testing.T) string {
	t.Helper()
	skipShort(t, "mongo")

	mongoOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		mongoC, err := testcontainers.Run(
			ctx, "mongo:7",
			testcontainers.WithExposedPorts("27017/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForListeningPort("27017/tcp"),
				wait.ForLog("Waiting for connections"),
			),
		)
		if err != nil {
			mongoErr = err
			return
		}
		t.Cleanup(func() {
			testcontainers.CleanupContainer(t, mongoC)
		})

		endpoint, err := endpointOrTerminate(ctx, mongoC, "")
		if err != nil {
			mongoErr = err
			return
		}
		mongoURI = "mongodb://" + endpoint
	})

	requireBackend(t, "mongo", mongoErr)
	return mongoURI
}
