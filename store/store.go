package store

import (
	"context"
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a store key.
const MaxKeyLength = 512

// Sentinel errors for store operations.
var (
	ErrNotFound    = errors.New("store: entry not found")
	ErrInvalidKey  = errors.New("store: key is invalid")
	ErrKeyTooLong  = errors.New("store: key exceeds max length")
	ErrInvalidName = errors.New("store: namespace name is invalid")
)

// Store is the interface for namespaced byte storage of cache entries.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use. Writes to
//   the same key are last-writer-wins; no coordination is provided.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get and Delete return ErrNotFound for absent keys; callers
//   wanting silent deletes ignore ErrNotFound.
type Store interface {
	// Exists reports whether an entry is present at key.
	Exists(ctx context.Context, key string) (bool, error)

	// Get retrieves the entry at key. Returns ErrNotFound on miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data at key, creating intermediate namespaces as needed.
	// Overwrites any existing entry.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes the entry at key. Returns ErrNotFound if absent.
	Delete(ctx context.Context, key string) error

	// Sub derives a nested namespace scoped under name.
	Sub(name string) (Store, error)

	// Locate returns the full location of key in this namespace, for
	// introspection. It does not touch storage.
	Locate(key string) string
}

// ValidateKey checks if a key is valid for storage.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys that could escape or mangle the namespace layout
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}

// ValidateName checks if a name is valid as a namespace component.
// Names follow the same hygiene rules as keys.
func ValidateName(name string) error {
	if ValidateKey(name) != nil {
		return ErrInvalidName
	}
	return nil
}
