// Package storage defines the key/value persistence used for visitor carts. It plays the role
// a browser's local storage plays for a client-side cart: opaque string keys, whole-value
// reads and writes, no partial updates.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// ErrInvalidKey is returned for empty keys.
var ErrInvalidKey = errors.New("storage: invalid key")

// ErrUnchanged is returned by an update callback to leave the stored value as it is. Update
// then returns nil without writing.
var ErrUnchanged = errors.New("storage: value unchanged")

// ErrConflict is returned when an optimistic update keeps losing to concurrent writers.
var ErrConflict = errors.New("storage: update conflict")

// Storage persists opaque values by key.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// UpdateFunc maps the current value of a key to its next value. current is nil when the key
// does not exist. Optimistic backends may call it more than once, so it must not have side
// effects beyond its return values.
type UpdateFunc func(current []byte) ([]byte, error)

// Updater is implemented by backends that run a read-modify-write on one key atomically with
// respect to every other writer of that backend, including other processes.
type Updater interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// Closer is implemented by backends holding network resources.
type Closer interface {
	Close() error
}

var (
	_ Updater = (*Memory)(nil)
	_ Updater = (*File)(nil)
)
