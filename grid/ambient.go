package grid

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Strict controls how scope misuse is handled. When true (debug builds,
// tests), ending a scope twice panics. When false, the extra end is
// ignored and the outer chain stays intact.
var Strict = false

type scopeKey struct{}

// scopeNode is one frame of the copy-on-write ambient stack. Frames are
// immutable; pushing allocates a new frame pointing at its predecessor,
// so concurrent logical chains sharing a prefix never interfere.
type scopeNode struct {
	ctx  *Context
	prev *scopeNode
}

// Scope is the handle returned by BeginScope. End must be called on every
// exit path; defer is the expected idiom.
type Scope struct {
	node  *scopeNode
	ended atomic.Bool
}

// End marks the scope released. Reading Current through the context
// returned by an inner BeginScope after its scope ended is a programming
// error; with Strict set a double End panics so it surfaces in tests.
func (s *Scope) End() {
	if s == nil {
		return
	}
	if !s.ended.CompareAndSwap(false, true) && Strict {
		panic(fmt.Sprintf("grid: scope for %s ended twice", s.node.ctx.CorrelationID()))
	}
}

// Ended reports whether End has been called.
func (s *Scope) Ended() bool { return s.ended.Load() }

// BeginScope pushes the context as "current" on the logical chain carried
// by ctx and returns the derived chain plus the scope handle. The previous
// current context is restored simply by using the outer ctx again, on
// every exit path.
func (c *Context) BeginScope(ctx context.Context) (context.Context, *Scope) {
	if ctx == nil {
		ctx = context.Background()
	}
	node := &scopeNode{ctx: c, prev: top(ctx)}
	return context.WithValue(ctx, scopeKey{}, node), &Scope{node: node}
}

// Current returns the context pushed by the innermost active scope on this
// logical chain, or nil when no scope is active. It never blocks; the read
// is a single context value lookup.
func Current(ctx context.Context) *Context {
	if node := top(ctx); node != nil {
		return node.ctx
	}
	return nil
}

// FromContext is Current with an explicit presence flag.
func FromContext(ctx context.Context) (*Context, bool) {
	c := Current(ctx)
	return c, c != nil
}

func top(ctx context.Context) *scopeNode {
	if ctx == nil {
		return nil
	}
	node, _ := ctx.Value(scopeKey{}).(*scopeNode)
	return node
}

// ContextAccessor abstracts ambient access so core logic can run purely on
// explicitly passed contexts, with the ambient store as an optional
// convenience adapter layered on top.
type ContextAccessor interface {
	// Current returns the innermost active context, or nil.
	Current(ctx context.Context) *Context

	// BeginScope pushes gc as current and returns the derived chain and
	// the scope handle guaranteeing restoration on exit.
	BeginScope(ctx context.Context, gc *Context) (context.Context, *Scope)
}

// Ambient is the default ContextAccessor backed by the context.Context
// value chain.
type Ambient struct{}

func (Ambient) Current(ctx context.Context) *Context { return Current(ctx) }

func (Ambient) BeginScope(ctx context.Context, gc *Context) (context.Context, *Scope) {
	return gc.BeginScope(ctx)
}
