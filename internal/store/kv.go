package store

import (
	"context"
	"errors"
)

// ErrNotFound reports a missing key.
var ErrNotFound = errors.New("store: key not found")

// KV is durable local key-value storage for the cached session. Two keys are
// in use: "token" and "user".
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
