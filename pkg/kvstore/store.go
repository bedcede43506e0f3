package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned when the backing store cannot serve a read or
// write. It is fatal to the in-flight request: callers must surface it as an
// internal error, never downgrade it to an absent key or a zero count.
var ErrUnavailable = errors.New("key-value store unavailable")

// Store is the key-value contract consumed by the session manager, the
// usage ledger, and the history store.
//
// Implementations must be safe for concurrent use. Values are opaque
// strings; callers own serialization. A ttl of zero means the entry does
// not expire.
type Store interface {
	// Get retrieves the value at key. The second return value reports
	// whether the key was present; an expired entry counts as absent.
	// Returns an error wrapping ErrUnavailable on backend failure.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put writes value at key with the given time-to-live. An existing
	// entry is overwritten and its expiry replaced.
	Put(ctx context.Context, key string, value string, ttl time.Duration) error

	// Close releases resources held by the store. The store must not be
	// used after Close.
	Close() error
}

// unavailable wraps a backend error in ErrUnavailable with operation context.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
