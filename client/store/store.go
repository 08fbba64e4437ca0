// Package store provides the client-persisted key/value storage the SDK
// keeps its session and conversation state in. Adapters mirror the
// localStorage semantics the web client relies on, including the quota
// failure mode that drives conversation compaction.
package store

import "errors"

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("store: key not found")
	// ErrQuotaExceeded is returned when a write would exceed the storage
	// budget. Callers are expected to shrink their payload and retry.
	ErrQuotaExceeded = errors.New("store: quota exceeded")
)

// Store is a flat string key/value store. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Del(key string) error
}
