package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIDUniqueness(t *testing.T) {
	gen := NewGenerator()

	seen := make(map[CorrelationID]bool)
	for i := 0; i < 1000; i++ {
		id := gen.GenerateCorrelationID()
		assert.False(t, seen[id], "duplicate correlation id %s", id)
		seen[id] = true
	}
}

func TestCorrelationIDSortsByCreationTime(t *testing.T) {
	gen := NewGenerator()

	generated := make([]string, 100)
	for i := range generated {
		generated[i] = gen.GenerateCorrelationID().String()
	}

	assert.True(t, sort.StringsAreSorted(generated),
		"ids generated in sequence must already be in lexicographic order")
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(NewCorrelationID().String()))
	assert.False(t, IsValid("not-a-ulid"))
	assert.False(t, IsValid(""))
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := NewCorrelationID()
	after := time.Now().Add(time.Second)

	ts, err := Timestamp(id)
	require.NoError(t, err)
	assert.True(t, ts.After(before) && ts.Before(after),
		"embedded timestamp %v outside [%v, %v]", ts, before, after)
}

func TestCausationIDIsRoot(t *testing.T) {
	assert.True(t, CausationID("").IsRoot())
	assert.False(t, CausationID("01J0000000000000000000000").IsRoot())
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()

	const workers = 8
	const perWorker = 200
	results := make(chan CorrelationID, workers*perWorker)
	for w := 0; w < workers; w++ {
		go func() {
			for i := 0; i < perWorker; i++ {
				results <- gen.GenerateCorrelationID()
			}
		}()
	}

	seen := make(map[CorrelationID]bool)
	for i := 0; i < workers*perWorker; i++ {
		id := <-results
		assert.False(t, seen[id])
		seen[id] = true
	}
}
