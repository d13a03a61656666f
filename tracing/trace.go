// Package tracing provides a lightweight span model and the adapter that
// enriches spans with Grid context identity.
//
// The tracer here is deliberately minimal: spans are created, annotated,
// finished, and drained to structured logs through a buffered collector.
// Sampling and export to a tracing backend belong to an external
// subsystem; this package only guarantees that every span carries the
// identity and baggage cross-service trace queries filter on.
package tracing

import (
	"sync"
	"time"

	"github.com/HoneyDrunkStudios/gridkernel/id"

	"go.uber.org/zap"
)

// SpanID identifies a single span.
type SpanID string

// Span is one traced operation. A span is owned by the goroutine that
// started it; the tracer only reads it after Submit.
type Span struct {
	SpanID    SpanID
	Name      string
	Service   string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	mu         sync.Mutex
	attributes map[string]string
	finished   bool
	failed     bool
	err        error
}

// SetAttribute records a key/value attribute on the span.
func (s *Span) SetAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attributes == nil {
		s.attributes = make(map[string]string)
	}
	s.attributes[key] = value
}

// Attribute returns a recorded attribute.
func (s *Span) Attribute(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.attributes[key]
	return v, ok
}

// Finished reports whether an outcome has been marked.
func (s *Span) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Failed reports whether the marked outcome was a failure.
func (s *Span) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// Err returns the failure recorded by MarkFailure.
func (s *Span) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// finish records the terminal outcome once; later calls are ignored so
// MarkSuccess and MarkFailure stay mutually exclusive.
func (s *Span) finish(failed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	s.failed = failed
	s.err = err
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// Tracer creates spans and drains finished ones to a zap logger.
type Tracer struct {
	service string
	logger  *zap.Logger
	spans   chan *Span
}

// New creates a tracer and starts its span collector.
func New(service string, logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		service: service,
		logger:  logger,
		spans:   make(chan *Span, 1000),
	}
	go t.collect()
	return t
}

// StartSpan creates a new started span.
func (t *Tracer) StartSpan(name string) *Span {
	return &Span{
		SpanID:    SpanID(id.Default().Generate().String()),
		Name:      name,
		Service:   t.service,
		StartTime: time.Now(),
	}
}

// Submit hands a finished span to the collector. Spans are dropped, not
// blocked on, when the buffer is full.
func (t *Tracer) Submit(span *Span) {
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("span_id", string(span.SpanID)),
			zap.String("span_name", span.Name),
		)
	}
}

func (t *Tracer) collect() {
	for span := range t.spans {
		t.process(span)
	}
}

func (t *Tracer) process(span *Span) {
	fields := []zap.Field{
		zap.String("span_id", string(span.SpanID)),
		zap.String("span_name", span.Name),
		zap.String("service", span.Service),
		zap.Duration("duration", span.Duration),
	}
	span.mu.Lock()
	for k, v := range span.attributes {
		fields = append(fields, zap.String(k, v))
	}
	failed, err := span.failed, span.err
	span.mu.Unlock()

	if failed {
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		t.logger.Error("span completed with error", fields...)
		return
	}
	t.logger.Info("span completed", fields...)
}
