// Package kv provides the durable key-value backends the meal store persists to.
package kv

import (
	"context"
	"errors"
)

// ErrInvalidKey is returned for keys a backend cannot address.
var ErrInvalidKey = errors.New("kv: invalid key")

// Backend is an asynchronous-friendly text key-value store.
type Backend interface {
	// Get returns the value stored under key. found is false when the key was never set.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key, value string) error
}
