// Package storage provides the synchronous key/value media the record store
// persists into: an origin-scoped durable medium with a hard capacity, and a
// session-scoped medium for short-lived hand-offs.
package storage

import "errors"

var (
	// ErrQuotaExceeded is returned by SetItem when the write would take the
	// medium past its capacity. Callers detect it with errors.Is.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
	ErrClosed        = errors.New("storage: medium closed")
)

// Medium is a string key/value store with browser storage semantics: every
// call completes synchronously and a missing key is not an error.
type Medium interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Keys() ([]string, error)
}

// ChangeEvent describes a write made through another context sharing the
// same medium. A nil value means the key was absent.
type ChangeEvent struct {
	Key      string
	OldValue *string
	NewValue *string
}

// Notifier is implemented by media that publish writes made by other
// contexts.
type Notifier interface {
	Subscribe(listener func(ChangeEvent)) (unsubscribe func())
}

func itemSize(key, value string) int {
	return len(key) + len(value)
}
