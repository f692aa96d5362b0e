package storage

import (
	"encoding/json"
	"errors"
)

// Store represents the key-value table backing a canonical instance. Values
// are raw JSON documents, opaque to the store.
type Store interface {
	// Put inserts or overwrites the value at key, and reports whether the key
	// was already present.
	Put(key string, value json.RawMessage) (existed bool)

	// Get should return ErrNotFound if the key is not in the store.
	Get(key string) (value json.RawMessage, err error)

	// Delete should return ErrNotFound if the key is not in the store.
	Delete(key string) error

	// Len returns the number of entries.
	Len() int
}

var (
	// ErrNotFound indicates a key is not in the store.
	ErrNotFound = errors.New("not found")
)

func dup(value json.RawMessage) json.RawMessage {
	if value == nil {
		return nil
	}
	c := make(json.RawMessage, len(value))
	copy(c, value)
	return c
}
