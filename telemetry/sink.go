package telemetry

import (
	"github.com/HoneyDrunkStudios/gridkernel/operation"

	"go.uber.org/zap"
)

// ZapSink logs one structured event per operation completion.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink writing to the given logger. A nil logger
// falls back to a no-op logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

// OperationCompleted emits the completion event at info or error level
// depending on the outcome.
func (s *ZapSink) OperationCompleted(e operation.Event) {
	fields := []zap.Field{
		zap.String("operation", e.OperationName),
		zap.String(FieldCorrelationID, e.CorrelationID.String()),
		zap.Int64("duration_ms", e.Duration.Milliseconds()),
		zap.Bool("success", e.Success),
	}
	if !e.CausationID.IsRoot() {
		fields = append(fields, zap.String(FieldCausationID, e.CausationID.String()))
	}
	if e.NodeID != "" {
		fields = append(fields, zap.String(FieldNodeID, e.NodeID.String()))
	}
	for k, v := range e.Metadata {
		fields = append(fields, zap.Any("meta."+k, v.Any()))
	}

	if e.Success {
		s.logger.Info("operation completed", fields...)
		return
	}
	fields = append(fields, zap.String("error", e.ErrorMessage))
	s.logger.Error("operation failed", fields...)
}

// MultiSink fans one event out to several sinks in order.
type MultiSink []operation.Sink

func (m MultiSink) OperationCompleted(e operation.Event) {
	for _, s := range m {
		s.OperationCompleted(e)
	}
}
