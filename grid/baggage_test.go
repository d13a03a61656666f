package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaggageZeroValueUsable(t *testing.T) {
	var b Baggage

	assert.Equal(t, 0, b.Len())
	_, ok := b.Get("anything")
	assert.False(t, ok)
}

func TestBaggageWith(t *testing.T) {
	b, err := Baggage{}.With("tenant", "t1")
	require.NoError(t, err)

	v, ok := b.Get("tenant")
	assert.True(t, ok)
	assert.Equal(t, "t1", v)
}

func TestBaggageWithDoesNotMutateReceiver(t *testing.T) {
	base, err := NewBaggage(map[string]string{"tenant": "t1"})
	require.NoError(t, err)

	extended, err := base.With("region", "eu")
	require.NoError(t, err)

	_, ok := base.Get("region")
	assert.False(t, ok, "extension must not leak into the original baggage")
	assert.Equal(t, 2, extended.Len())
}

func TestBaggageWithOverwrites(t *testing.T) {
	b, _ := Baggage{}.With("tenant", "t1")
	b, err := b.With("tenant", "t2")
	require.NoError(t, err)

	v, _ := b.Get("tenant")
	assert.Equal(t, "t2", v)
	assert.Equal(t, 1, b.Len())
}

func TestBaggageEmptyKeyRejected(t *testing.T) {
	_, err := Baggage{}.With("", "v")
	assert.ErrorIs(t, err, ErrEmptyBaggageKey)

	_, err = NewBaggage(map[string]string{"": "v"})
	assert.ErrorIs(t, err, ErrEmptyBaggageKey)
}

func TestBaggageKeysAreCaseSensitive(t *testing.T) {
	b, _ := Baggage{}.With("Tenant", "upper")
	b, _ = b.With("tenant", "lower")

	assert.Equal(t, 2, b.Len())
	upper, _ := b.Get("Tenant")
	lower, _ := b.Get("tenant")
	assert.Equal(t, "upper", upper)
	assert.Equal(t, "lower", lower)
}

func TestBaggageNewCopiesInput(t *testing.T) {
	entries := map[string]string{"tenant": "t1"}
	b, err := NewBaggage(entries)
	require.NoError(t, err)

	entries["tenant"] = "mutated"
	v, _ := b.Get("tenant")
	assert.Equal(t, "t1", v)
}

func TestBaggageKeysSorted(t *testing.T) {
	b, _ := NewBaggage(map[string]string{"c": "3", "a": "1", "b": "2"})
	assert.Equal(t, []string{"a", "b", "c"}, b.Keys())
}

func TestBaggageMapIsCopy(t *testing.T) {
	b, _ := NewBaggage(map[string]string{"tenant": "t1"})
	m := b.Map()
	m["tenant"] = "mutated"

	v, _ := b.Get("tenant")
	assert.Equal(t, "t1", v)
}
