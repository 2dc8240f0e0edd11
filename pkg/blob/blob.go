// Package blob defines the content-addressed blob store contract (C2):
// a set-like store mapping an opaque, server-generated identifier to a
// byte sequence, sharded by the first two characters of the identifier.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read/Delete/Exists-adjacent calls when the
// identifier has no body in the store.
var ErrNotFound = errors.New("blob: not found")

// ErrClosed is returned by the fs backend's operations after Close. The
// badger and s3 backends do not return it.
var ErrClosed = errors.New("blob: store closed")

// Store is the contract every blob backend (fs, badger, s3) satisfies.
type Store interface {
	// Write stores data under id, creating any needed shard directory.
	// A partial write is never observable: the write either fully
	// succeeds or leaves no trace.
	Write(ctx context.Context, id string, data []byte) error

	// Read returns the complete body for id, or ErrNotFound.
	Read(ctx context.Context, id string) ([]byte, error)

	// Delete removes the body for id. Deleting a missing id is an
	// error (ErrNotFound), matching spec.md §4.2.
	Delete(ctx context.Context, id string) error

	// Exists reports whether id has a stored body.
	Exists(ctx context.Context, id string) (bool, error)

	Close() error
}
