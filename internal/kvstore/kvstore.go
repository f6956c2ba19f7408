package kvstore

import "errors"

// ErrNotFound is returned when a key has never been set.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the client-local persistence collaborator: flat string keys,
// opaque values, scoped to one client instance.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
}
