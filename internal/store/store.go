// Package store provides the key-value blob store the alert cache and
// portfolio records persist into. Implementations are interchangeable;
// callers treat absence and corruption of a value identically.
package store

import "errors"

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("key not found")

// KV is a minimal blob store keyed by string. Writes are whole-value
// replacements; there is no partial update.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
