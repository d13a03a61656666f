// Package operation tracks the lifecycle of bounded units of work.
//
// An Operation starts Running and reaches exactly one terminal state,
// Succeeded or Failed. Terminal transition is exactly-once: a second
// Complete or Fail is a contract violation reported to the caller, never
// silently ignored. The release hook End reconciles implicit completion
// on scope exit with explicit failure reporting:
//
//	func charge(ctx context.Context) (err error) {
//		op := factory.BeginAmbient(ctx, "charge-card")
//		defer op.End(&err)
//		...
//	}
//
// If the scope exits cleanly the operation auto-succeeds; if an error is
// in flight it auto-fails with that error captured.
package operation

import (
	"context"
	"errors"
	"time"

	"github.com/HoneyDrunkStudios/gridkernel/grid"
	"github.com/HoneyDrunkStudios/gridkernel/id"
)

// ErrCompleted is returned by mutators once an operation is terminal.
var ErrCompleted = errors.New("operation already reached a terminal state")

// Event is the structured record emitted exactly once per operation on
// its terminal transition.
type Event struct {
	OperationName string
	CorrelationID id.CorrelationID
	CausationID   id.CausationID
	NodeID        id.NodeID
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	Success       bool
	ErrorMessage  string
	Metadata      map[string]Value
}

// Sink receives completion events. Implementations must tolerate being
// called from the goroutine that owns the operation.
type Sink interface {
	OperationCompleted(Event)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) OperationCompleted(Event) {}

// Factory creates operations bound to a Grid context and reports their
// completion to a telemetry sink.
type Factory struct {
	sink Sink
	now  func() time.Time
}

// NewFactory creates a factory. A nil sink discards events.
func NewFactory(sink Sink) *Factory {
	if sink == nil {
		sink = NopSink{}
	}
	return &Factory{sink: sink, now: time.Now}
}

// WithClock overrides the factory's clock. Test hook.
func (f *Factory) WithClock(now func() time.Time) *Factory {
	f.now = now
	return f
}

// Begin creates a Running operation bound to the explicitly supplied Grid
// context. gc may be nil when the caller has no context to attribute the
// work to; identity fields on the event are then empty.
func (f *Factory) Begin(gc *grid.Context, name string) *Operation {
	return &Operation{
		grid:      gc,
		name:      name,
		startedAt: f.now(),
		metadata:  make(map[string]Value),
		sink:      f.sink,
		now:       f.now,
	}
}

// BeginAmbient creates a Running operation bound to the innermost ambient
// Grid context on ctx, if any.
func (f *Factory) BeginAmbient(ctx context.Context, name string) *Operation {
	return f.Begin(grid.Current(ctx), name)
}

// Operation is a single bounded unit of work. It is exclusively owned by
// its creator and is not safe for concurrent mutation; the exactly-once
// terminal invariant is enforced against sequential misuse, not races.
type Operation struct {
	grid      *grid.Context
	name      string
	startedAt time.Time

	terminal     bool
	success      bool
	errorMessage string
	completedAt  time.Time
	duration     time.Duration
	metadata     map[string]Value

	sink Sink
	now  func() time.Time
}

// Name returns the operation name.
func (o *Operation) Name() string { return o.name }

// StartedAt returns when the operation began.
func (o *Operation) StartedAt() time.Time { return o.startedAt }

// CompletedAt returns the terminal timestamp, zero while Running.
func (o *Operation) CompletedAt() time.Time { return o.completedAt }

// Duration returns the terminal duration, zero while Running.
func (o *Operation) Duration() time.Duration { return o.duration }

// Outcome reports (success, done). success is meaningful only once done.
func (o *Operation) Outcome() (success, done bool) {
	return o.success, o.terminal
}

// ErrorMessage returns the failure message, empty unless Failed.
func (o *Operation) ErrorMessage() string { return o.errorMessage }

// Metadata returns a copy of the metadata recorded so far.
func (o *Operation) Metadata() map[string]Value {
	copied := make(map[string]Value, len(o.metadata))
	for k, v := range o.metadata {
		copied[k] = v
	}
	return copied
}

// AddMetadata records a key/value pair. Keys may be overwritten while the
// operation is Running; once terminal the call fails with ErrCompleted.
func (o *Operation) AddMetadata(key string, value Value) error {
	if o.terminal {
		return ErrCompleted
	}
	o.metadata[key] = value
	return nil
}

// Complete transitions Running → Succeeded. Calling it on a terminal
// operation returns ErrCompleted.
func (o *Operation) Complete() error {
	if o.terminal {
		return ErrCompleted
	}
	o.finish(true, "")
	return nil
}

// Fail transitions Running → Failed, recording the message. It does not
// wrap, suppress, or rethrow cause; propagating the original error stays
// the caller's responsibility.
func (o *Operation) Fail(message string, cause error) error {
	if o.terminal {
		return ErrCompleted
	}
	if message == "" && cause != nil {
		message = cause.Error()
	}
	o.finish(false, message)
	return nil
}

// End is the single release hook. Call it deferred with a pointer to the
// function's named error return: a nil in-flight error auto-completes the
// operation, a non-nil one auto-fails it. End after an explicit Complete
// or Fail is a no-op, so the deferred call is always safe.
func (o *Operation) End(errp *error) {
	if o.terminal {
		return
	}
	if errp != nil && *errp != nil {
		o.finish(false, (*errp).Error())
		return
	}
	o.finish(true, "")
}

// finish performs the exactly-once terminal transition and emits the
// completion event.
func (o *Operation) finish(success bool, errorMessage string) {
	o.terminal = true
	o.success = success
	o.errorMessage = errorMessage
	o.completedAt = o.now()
	o.duration = o.completedAt.Sub(o.startedAt)

	event := Event{
		OperationName: o.name,
		StartedAt:     o.startedAt,
		CompletedAt:   o.completedAt,
		Duration:      o.duration,
		Success:       success,
		ErrorMessage:  errorMessage,
		Metadata:      o.Metadata(),
	}
	if o.grid != nil {
		event.CorrelationID = o.grid.CorrelationID()
		event.CausationID = o.grid.CausationID()
		event.NodeID = o.grid.NodeID()
	}
	o.sink.OperationCompleted(event)
}
