// Package telemetry carries operation completions and propagation health
// to structured logs and Prometheus.
package telemetry

import (
	"github.com/HoneyDrunkStudios/gridkernel/grid"

	"go.uber.org/zap"
)

// Attribute names, shared with span enrichment so logs and traces filter
// on the same keys.
const (
	FieldCorrelationID = "grid.correlation_id"
	FieldCausationID   = "grid.causation_id"
	FieldNodeID        = "grid.node_id"
	FieldStudioID      = "grid.studio_id"
	FieldEnvironment   = "grid.environment"
	BaggageFieldPrefix = "grid.baggage."
)

// Fields renders a Grid context as zap fields under the grid namespace.
// A nil context yields no fields.
func Fields(gc *grid.Context) []zap.Field {
	if gc == nil {
		return nil
	}
	fields := []zap.Field{
		zap.String(FieldCorrelationID, gc.CorrelationID().String()),
		zap.String(FieldNodeID, gc.NodeID().String()),
		zap.String(FieldStudioID, gc.StudioID().String()),
		zap.String(FieldEnvironment, gc.Environment().String()),
	}
	if !gc.IsRoot() {
		fields = append(fields, zap.String(FieldCausationID, gc.CausationID().String()))
	}
	gc.Baggage().Range(func(k, v string) bool {
		fields = append(fields, zap.String(BaggageFieldPrefix+k, v))
		return true
	})
	return fields
}
