/*
Package grid implements the context entity model for the Grid runtime.

# Overview

A Grid is a set of cooperating processes (nodes). Every bounded unit of
work inside the Grid runs under a Context carrying correlation identity,
key/value baggage, and a cooperative cancellation signal. Contexts form a
causation chain: each child derivation generates a fresh correlation id
and records the parent's correlation id as its causation id, so lineage
can be reconstructed backwards to the root.

# Immutability

Context and Baggage are immutable after construction. Derivation
(CreateChildContext, WithBaggage) always returns a new instance, which
makes contexts safe to share by reference across concurrently executing
child operations without coordination.

# Ambient access

The primary data path is explicit passing. For call sites where that is
impractical, the ContextAccessor capability layers scoped ambient access
on top of Go's context.Context value chain:

	gctx, scope := gc.BeginScope(ctx)
	defer scope.End()
	// grid.Current(gctx) == gc inside the scope

Because the scope chain is copy-on-write, concurrent logical chains never
observe each other's current context.
*/
package grid
