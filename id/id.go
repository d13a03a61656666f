// Package id provides centralized identity generation for the Grid.
//
// Correlation ids are ULIDs:
//   - Lexicographic sortability: contexts order naturally by creation time
//   - Monotonicity: ids generated within one process never sort backwards
//   - Type safety: separate wrapper types prevent id misuse across fields
//
// Node, studio, and environment identifiers are not generated here; they
// arrive pre-validated from configuration and are only wrapped.
package id

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// CorrelationID identifies one causal step in the Grid.
type CorrelationID string

// CausationID is the correlation id of the step that caused this one.
// It is empty for root contexts.
type CausationID string

// NodeID identifies a running node (process) in the Grid.
type NodeID string

// StudioID identifies the studio (tenant) a node belongs to.
type StudioID string

// Environment identifies the deployment environment (dev, staging, prod).
type Environment string

func (id CorrelationID) String() string { return string(id) }
func (id CausationID) String() string   { return string(id) }
func (id NodeID) String() string        { return string(id) }
func (id StudioID) String() string      { return string(id) }
func (e Environment) String() string    { return string(e) }

// IsRoot reports whether the causation id marks a root context.
func (id CausationID) IsRoot() bool { return id == "" }

// Generator generates monotonic ULIDs.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator with cryptographically secure,
// monotonic entropy.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateCorrelationID creates a fresh correlation id.
func (g *Generator) GenerateCorrelationID() CorrelationID {
	return CorrelationID(g.Generate().String())
}

// NewCorrelationID generates a correlation id from the default generator.
func NewCorrelationID() CorrelationID {
	return Default().GenerateCorrelationID()
}

// IsValid checks whether an id string is a valid ULID.
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time embedded in a correlation id.
func Timestamp(id CorrelationID) (time.Time, error) {
	parsed, err := ulid.Parse(string(id))
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
