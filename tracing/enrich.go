package tracing

import (
	"github.com/HoneyDrunkStudios/gridkernel/grid"
	"github.com/HoneyDrunkStudios/gridkernel/telemetry"
)

// Annotate copies the context's identity and every baggage entry onto an
// already-started span as grid-namespaced attributes, so cross-service
// trace queries can filter by correlation id, node id, or baggage key.
// It performs no I/O and never fails; a nil span or context is a no-op.
func Annotate(span *Span, gc *grid.Context) {
	if span == nil || gc == nil {
		return
	}
	span.SetAttribute(telemetry.FieldCorrelationID, gc.CorrelationID().String())
	if !gc.IsRoot() {
		span.SetAttribute(telemetry.FieldCausationID, gc.CausationID().String())
	}
	span.SetAttribute(telemetry.FieldNodeID, gc.NodeID().String())
	span.SetAttribute(telemetry.FieldStudioID, gc.StudioID().String())
	span.SetAttribute(telemetry.FieldEnvironment, gc.Environment().String())
	gc.Baggage().Range(func(k, v string) bool {
		span.SetAttribute(telemetry.BaggageFieldPrefix+k, v)
		return true
	})
}

// MarkSuccess records the span's terminal outcome as success. Terminal
// marks are mutually exclusive and first-wins, mirroring the operation
// tracker's Complete/Fail duality. A nil span is a no-op.
func MarkSuccess(span *Span) {
	if span == nil {
		return
	}
	span.finish(false, nil)
}

// MarkFailure records the span's terminal outcome as failure with the
// causing error. A nil span is a no-op.
func MarkFailure(span *Span, err error) {
	if span == nil {
		return
	}
	span.finish(true, err)
}
