package grid

import (
	"errors"
	"sort"
)

// ErrEmptyBaggageKey is returned when a baggage entry is added with an
// empty key. Keys are case-sensitive; emptiness is the only restriction.
var ErrEmptyBaggageKey = errors.New("baggage key must not be empty")

// Baggage is an immutable string-to-string mapping propagated alongside
// context identity. The zero value is an empty, usable baggage.
//
// Baggage is owned by exactly one Context at a time but, being immutable,
// is safely shared by reference between a parent and its children.
type Baggage struct {
	entries map[string]string
}

// NewBaggage builds a baggage from the given entries. The map is copied;
// later mutation of the argument does not affect the baggage.
func NewBaggage(entries map[string]string) (Baggage, error) {
	if len(entries) == 0 {
		return Baggage{}, nil
	}
	copied := make(map[string]string, len(entries))
	for k, v := range entries {
		if k == "" {
			return Baggage{}, ErrEmptyBaggageKey
		}
		copied[k] = v
	}
	return Baggage{entries: copied}, nil
}

// With returns a new baggage containing key→value in addition to the
// receiver's entries, overwriting any prior value for that key.
func (b Baggage) With(key, value string) (Baggage, error) {
	if key == "" {
		return Baggage{}, ErrEmptyBaggageKey
	}
	copied := make(map[string]string, len(b.entries)+1)
	for k, v := range b.entries {
		copied[k] = v
	}
	copied[key] = value
	return Baggage{entries: copied}, nil
}

// Get returns the value for key and whether it is present.
func (b Baggage) Get(key string) (string, bool) {
	v, ok := b.entries[key]
	return v, ok
}

// Len returns the number of entries.
func (b Baggage) Len() int {
	return len(b.entries)
}

// Keys returns the baggage keys in lexicographic order.
func (b Baggage) Keys() []string {
	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range calls f for each entry until f returns false.
func (b Baggage) Range(f func(key, value string) bool) {
	for k, v := range b.entries {
		if !f(k, v) {
			return
		}
	}
}

// Map returns a mutable copy of the entries.
func (b Baggage) Map() map[string]string {
	copied := make(map[string]string, len(b.entries))
	for k, v := range b.entries {
		copied[k] = v
	}
	return copied
}
