package grid

import (
	"context"
	"time"

	"github.com/HoneyDrunkStudios/gridkernel/id"
)

// Context is the per-operation Grid context. It is immutable after
// construction: derivation always yields a new instance, so a Context is
// safe to share by reference across goroutines.
//
// Invariant: every non-root Context's causation id equals the correlation
// id of the context that created it.
type Context struct {
	correlationID id.CorrelationID
	causationID   id.CausationID
	nodeID        id.NodeID
	studioID      id.StudioID
	environment   id.Environment
	baggage       Baggage
	signal        context.Context
	createdAt     time.Time
	gen           *id.Generator
}

// NewRoot creates a root context (no causation) with a freshly generated
// correlation id, stamped with the node's process-scope identity.
func NewRoot(node *NodeContext) *Context {
	return Restore(id.Default().GenerateCorrelationID(), "", node, Baggage{})
}

// Restore builds a context from identifiers recovered off a wire carrier.
// An empty causation id marks a root. Boundary mappers are the intended
// caller; application code derives children instead.
func Restore(correlationID id.CorrelationID, causationID id.CausationID, node *NodeContext, baggage Baggage) *Context {
	c := &Context{
		correlationID: correlationID,
		causationID:   causationID,
		baggage:       baggage,
		signal:        context.Background(),
		createdAt:     time.Now(),
		gen:           id.Default(),
	}
	if node != nil {
		c.nodeID = node.NodeID()
		c.studioID = node.StudioID()
		c.environment = node.Environment()
	}
	return c
}

// CreateChildContext derives a child for the next causal step: a fresh
// correlation id is generated and the receiver's correlation id becomes
// the child's causation id. Baggage is shared by reference (immutable).
// The cancellation signal is inherited; the child observes the parent's
// cancellation but cannot cancel the parent. An empty overrideNodeID
// inherits the receiver's node id.
func (c *Context) CreateChildContext(overrideNodeID id.NodeID) *Context {
	child := *c
	child.correlationID = c.gen.GenerateCorrelationID()
	child.causationID = id.CausationID(c.correlationID)
	child.createdAt = time.Now()
	if overrideNodeID != "" {
		child.nodeID = overrideNodeID
	}
	return &child
}

// WithBaggage returns a context identical to the receiver except that the
// baggage contains key→value. This is an enrichment step, not a causation
// step: correlation and causation ids are unchanged.
func (c *Context) WithBaggage(key, value string) (*Context, error) {
	extended, err := c.baggage.With(key, value)
	if err != nil {
		return nil, err
	}
	derived := *c
	derived.baggage = extended
	return &derived, nil
}

// WithCancellation returns a context identical to the receiver but
// observing the given signal. The signal's owner stays outside this
// package; descendants derived afterwards inherit the same signal.
func (c *Context) WithCancellation(signal context.Context) *Context {
	if signal == nil {
		signal = context.Background()
	}
	derived := *c
	derived.signal = signal
	return &derived
}

// CorrelationID returns the identifier of this causal step.
func (c *Context) CorrelationID() id.CorrelationID { return c.correlationID }

// CausationID returns the parent step's correlation id, empty for roots.
func (c *Context) CausationID() id.CausationID { return c.causationID }

// NodeID returns the node this context was created on.
func (c *Context) NodeID() id.NodeID { return c.nodeID }

// StudioID returns the owning studio.
func (c *Context) StudioID() id.StudioID { return c.studioID }

// Environment returns the deployment environment.
func (c *Context) Environment() id.Environment { return c.environment }

// Baggage returns the propagated key/value entries.
func (c *Context) Baggage() Baggage { return c.baggage }

// CreatedAt returns the construction timestamp.
func (c *Context) CreatedAt() time.Time { return c.createdAt }

// IsRoot reports whether this context starts a causation chain.
func (c *Context) IsRoot() bool { return c.causationID.IsRoot() }

// Done exposes the cooperative cancellation signal. It never returns nil.
func (c *Context) Done() <-chan struct{} { return c.signal.Done() }

// Err reports why the context was cancelled, or nil while it is live.
func (c *Context) Err() error { return c.signal.Err() }
