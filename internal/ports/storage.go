package ports

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by ObjectStore.Get for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the durable partitioned blob store the pipeline reads raw
// records from and writes rollups to. Implementations are constructed and
// injected explicitly so tests can substitute an in-memory fake.
type ObjectStore interface {
	// List returns all object keys under the given prefix, in the store's
	// listing order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Get fetches an object body. Returns ErrObjectNotFound for missing keys.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores an object, overwriting any existing content at the key.
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Cache is a small key-value store with expiration, used for scheduler
// checkpoints.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}
