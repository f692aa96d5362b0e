package kvs

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// DefaultMaxKeyLength is the longest key, in characters, a PUT may use.
const DefaultMaxKeyLength = 50

// Validator checks PUT requests before they reach the store. GETs and
// DELETEs are not validated: a key that could never be written is simply
// not found.
type Validator struct {
	MaxKeyLength int
}

// ValidatePut applies the rules in order: key length first, then body
// shape. On success it returns the raw JSON of the body's "value" field.
func (v Validator) ValidatePut(key string, body []byte) (json.RawMessage, error) {
	limit := v.MaxKeyLength
	if limit <= 0 {
		limit = DefaultMaxKeyLength
	}
	if n := utf8.RuneCountInString(key); n > limit {
		return nil, fmt.Errorf("%d characters, at most %d allowed: %w", n, limit, ErrKeyTooLong)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMissingValue)
	}
	value, ok := fields["value"]
	if !ok {
		return nil, ErrMissingValue
	}
	return value, nil
}
