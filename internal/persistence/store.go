package persistence

import (
	"context"
	"errors"
)

// ErrDocumentNotFound is returned by Get when nothing is stored under a key.
var ErrDocumentNotFound = errors.New("document not found")

// Keys used by the Gateway. The pipeline and the service registry are stored
// independently so either can be rewritten without touching the other.
const (
	KeyPipeline = "pipeline"
	KeyServices = "services"
)

// DocumentStore is a key/value store for opaque JSON payloads.
//
// Put overwrites any previous value. Get returns ErrDocumentNotFound for a
// missing key. Delete of a missing key is not an error.
type DocumentStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
