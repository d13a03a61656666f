package propagation

import (
	"strings"

	"github.com/HoneyDrunkStudios/gridkernel/grid"
	"github.com/HoneyDrunkStudios/gridkernel/id"
)

// Wire field names per carrier kind. Fixed: changing them breaks
// cross-service interop.
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderCausationID   = "X-Causation-ID"
	HeaderBaggagePrefix = "X-Baggage-"

	PropCorrelationID = "correlation-id"
	PropCausationID   = "causation-id"
	PropBaggagePrefix = "baggage-"

	JobCorrelationID = "correlationId"
	JobCausationID   = "causationId"
	JobBaggagePrefix = "baggage."
)

// Kind names the carrier variant, used for fallback accounting.
type Kind string

const (
	KindHTTP    Kind = "http"
	KindMessage Kind = "message"
	KindJob     Kind = "job"
)

// names is the carrier-specific field layout. fold marks carriers whose
// keys travel case-insensitively (HTTP headers, gRPC metadata); baggage
// keys extracted off such carriers are normalized to lower case.
type names struct {
	correlation string
	causation   string
	prefix      string
	fold        bool
}

// FallbackObserver is notified when an inbound carrier had no correlation
// id and a fresh root was synthesized. telemetry.Metrics implements it.
type FallbackObserver interface {
	ContextSynthesized(carrier string)
}

type nopObserver struct{}

func (nopObserver) ContextSynthesized(string) {}

// Propagator maps between one carrier kind and Grid contexts. Extract
// never fails; Inject is total (it overwrites every context field on the
// carrier and touches nothing else).
type Propagator struct {
	kind     Kind
	names    names
	node     *grid.NodeContext
	gen      *id.Generator
	observer FallbackObserver
}

// Option configures a Propagator.
type Option func(*Propagator)

// WithObserver sets the fallback observer.
func WithObserver(o FallbackObserver) Option {
	return func(p *Propagator) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithGenerator overrides the correlation id generator. Test hook.
func WithGenerator(g *id.Generator) Option {
	return func(p *Propagator) {
		if g != nil {
			p.gen = g
		}
	}
}

// NewHTTP creates the propagator for HTTP header carriers.
func NewHTTP(node *grid.NodeContext, opts ...Option) *Propagator {
	return newPropagator(KindHTTP, names{HeaderCorrelationID, HeaderCausationID, HeaderBaggagePrefix, true}, node, opts)
}

// NewMessage creates the propagator for message-envelope carriers.
func NewMessage(node *grid.NodeContext, opts ...Option) *Propagator {
	return newPropagator(KindMessage, names{PropCorrelationID, PropCausationID, PropBaggagePrefix, true}, node, opts)
}

// NewJob creates the propagator for job-payload carriers.
func NewJob(node *grid.NodeContext, opts ...Option) *Propagator {
	return newPropagator(KindJob, names{JobCorrelationID, JobCausationID, JobBaggagePrefix, false}, node, opts)
}

func newPropagator(kind Kind, n names, node *grid.NodeContext, opts []Option) *Propagator {
	p := &Propagator{
		kind:     kind,
		names:    n,
		node:     node,
		gen:      id.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Kind returns the carrier kind this propagator serves.
func (p *Propagator) Kind() Kind { return p.kind }

// ExtractContext reconstructs a Grid context from an inbound carrier.
// A blank correlation id synthesizes a fresh root (and is reported to the
// observer so operators can spot broken upstream propagation); a blank
// causation id means root. Inbound context is always resolvable.
func (p *Propagator) ExtractContext(carrier Carrier) *grid.Context {
	correlation := strings.TrimSpace(carrier.Get(p.names.correlation))
	if correlation == "" {
		correlation = p.gen.GenerateCorrelationID().String()
		p.observer.ContextSynthesized(string(p.kind))
	}
	causation := strings.TrimSpace(carrier.Get(p.names.causation))

	bag := grid.Baggage{}
	for _, key := range carrier.Keys() {
		name, ok := p.baggageName(key)
		if !ok || name == "" {
			continue
		}
		bag, _ = bag.With(name, carrier.Get(key))
	}

	return grid.Restore(id.CorrelationID(correlation), id.CausationID(causation), p.node, bag)
}

// InjectContext writes the context into an outbound carrier. Pre-existing
// context fields on the carrier are overwritten and stale baggage entries
// removed, so a reused carrier never leaks baggage from a prior hop.
// Fields unrelated to context are never touched.
func (p *Propagator) InjectContext(gc *grid.Context, carrier Carrier) {
	for _, key := range carrier.Keys() {
		if _, ok := p.baggageName(key); ok {
			carrier.Delete(key)
		}
	}

	carrier.Set(p.names.correlation, gc.CorrelationID().String())
	if gc.IsRoot() {
		carrier.Delete(p.names.causation)
	} else {
		carrier.Set(p.names.causation, gc.CausationID().String())
	}
	gc.Baggage().Range(func(k, v string) bool {
		carrier.Set(p.names.prefix+k, v)
		return true
	})
}

// baggageName strips the carrier's baggage prefix off a key, reporting
// whether the key was a baggage field. On folding carriers the match is
// case-insensitive and the remainder is lowercased.
func (p *Propagator) baggageName(key string) (string, bool) {
	if p.names.fold {
		if len(key) < len(p.names.prefix) || !strings.EqualFold(key[:len(p.names.prefix)], p.names.prefix) {
			return "", false
		}
		return strings.ToLower(key[len(p.names.prefix):]), true
	}
	name, ok := strings.CutPrefix(key, p.names.prefix)
	if !ok {
		return "", false
	}
	return name, true
}
