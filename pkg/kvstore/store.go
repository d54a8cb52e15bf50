// Package kvstore provides a small key/value store for operator-scoped
// state: the partner session record, UI preferences and similar durable
// odds and ends. Values are opaque strings; callers own the encoding.
package kvstore

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// Store is the key/value contract. Set upserts; Delete is a no-op for a
// missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
