// Package testutil starts the backing services used by the store test
// suites. Each container is started at most once per test binary.
package testutil

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// requireBackend skips under -short and fails the test when the container
// could not be started.
func requireBackend(t *testing.T, name string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("start %s container: %v", name, err)
	}
}

func skipShort(t *testing.T, name string) {
	t.Helper()
	if testing.Short() {
		t.Skipf("skipping %s suite in -short mode", name)
	}
}

// endpointOrTerminate returns the container's host:port, terminating the
// container when it cannot be read.
func endpointOrTerminate(ctx context.Context, c testcontainers.Container, proto string) (string, error) {
	endpoint, err := c.Endpoint(ctx, proto)
	if err != nil {
		_ = c.Terminate(context.Background()) // best-effort cleanup
		return "", err
	}
	return endpoint, nil
}
