// Package propagation translates Grid contexts to and from wire carriers.
//
// One Propagator implements the extract/inject contract for all carrier
// kinds; carriers differ only in field layout (header names, property
// names, payload fields), never in semantics, so application code never
// special-cases the hop kind.
package propagation

import (
	"net/http"

	"google.golang.org/grpc/metadata"
)

// Carrier is a text-map view over a wire container. Implementations
// adapt concrete transports (HTTP headers, message properties, job
// payload metadata) to the Propagator.
type Carrier interface {
	// Get returns the value for key, or "" when absent.
	Get(key string) string

	// Set stores key→value, replacing any prior value.
	Set(key, value string)

	// Delete removes key.
	Delete(key string)

	// Keys lists the keys currently present.
	Keys() []string
}

// HeaderCarrier adapts http.Header. Header keys are canonicalized by
// net/http, so baggage keys travel case-insensitively on this carrier.
type HeaderCarrier http.Header

func (c HeaderCarrier) Get(key string) string { return http.Header(c).Get(key) }

func (c HeaderCarrier) Set(key, value string) { http.Header(c).Set(key, value) }

func (c HeaderCarrier) Delete(key string) { http.Header(c).Del(key) }

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// MetadataCarrier adapts gRPC metadata, the message-envelope properties
// of in-Grid RPC hops. gRPC lowercases keys.
type MetadataCarrier metadata.MD

func (c MetadataCarrier) Get(key string) string {
	if values := metadata.MD(c).Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

func (c MetadataCarrier) Set(key, value string) { metadata.MD(c).Set(key, value) }

func (c MetadataCarrier) Delete(key string) { metadata.MD(c).Delete(key) }

func (c MetadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// MapCarrier adapts a plain string map, the metadata block of job
// payloads. Keys are exact-case.
type MapCarrier map[string]string

func (c MapCarrier) Get(key string) string { return c[key] }

func (c MapCarrier) Set(key, value string) { c[key] = value }

func (c MapCarrier) Delete(key string) { delete(c, key) }

func (c MapCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
