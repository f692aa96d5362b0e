package kvs

import "errors"

var (
	// ErrKeyTooLong and ErrMissingValue are validation failures of a PUT.
	ErrKeyTooLong   = errors.New("key is too long")
	ErrMissingValue = errors.New("put request does not specify a value")

	// ErrKeyNotFound indicates a GET or DELETE of a key that is not stored.
	ErrKeyNotFound = errors.New("key does not exist")

	// ErrUpstreamUnreachable indicates the forward target could not be
	// reached, or did not answer in time.
	ErrUpstreamUnreachable = errors.New("cannot forward request")
)
