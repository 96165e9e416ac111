// Package storage defines the persistence contract shared by every backend.
//
// Records are opaque JSON documents keyed by collection and key. Uniqueness
// is enforced only through CreateIfAbsent: under concurrent callers racing
// to create the same unique value, exactly one succeeds and the rest observe
// ErrConflict. Backends realise this with whatever conditional-write
// primitive they have (a mutex for the in-process map, SETNX for redis,
// INSERT ... ON CONFLICT for postgres); a read-then-write sequence is never
// an acceptable implementation.
package storage

import (
	"context"
	"errors"
	"time"
)

// Collections used by the application.
const (
	CollectionUsers    = "users"
	CollectionItems    = "items"
	CollectionSessions = "sessions"
)

var (
	// ErrConflict reports a uniqueness violation from CreateIfAbsent.
	ErrConflict = errors.New("storage: record already exists")

	// ErrUnavailable reports a transient backend failure. Callers retry
	// once (see WithRetry) before surfacing it.
	ErrUnavailable = errors.New("storage: backend unavailable")
)

// Uniqueness names the field whose value must be unique within a collection.
// The zero value means no constraint.
type Uniqueness struct {
	Field string
	Value string
}

// Adapter is the uniform persistence contract. A missing record is reported
// through the boolean return, never as an error.
type Adapter interface {
	// Get returns the record stored under key, or false when absent.
	Get(ctx context.Context, collection, key string) ([]byte, bool, error)

	// FindBy returns the first live record whose field equals value.
	FindBy(ctx context.Context, collection, field, value string) ([]byte, bool, error)

	// List returns all live records in a collection.
	List(ctx context.Context, collection string) ([][]byte, error)

	// CreateIfAbsent atomically stores data under key, additionally
	// claiming the uniqueness constraint when one is given. Returns
	// ErrConflict when the key or the unique value is already taken.
	// A ttl of zero means the record never expires.
	CreateIfAbsent(ctx context.Context, collection, key string, unique Uniqueness, data []byte, ttl time.Duration) error

	// Put unconditionally upserts the record.
	Put(ctx context.Context, collection, key string, data []byte, ttl time.Duration) error

	// Delete removes the record. Deleting an absent key is not an error.
	Delete(ctx context.Context, collection, key string) error
}

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsUnavailable reports whether err is a transient backend failure.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
