// Package server provides HTTP hosting for one Grid node.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (CORS, rate limiting, recovery, context propagation)
//   - Operation tracking and telemetry sinks
//   - Node lifecycle transitions (Starting → Ready → Stopping → Stopped)
//
// Server Lifecycle:
//  1. Load configuration from environment
//  2. Initialize logger (production or development)
//  3. Build the NodeContext from configured identity and tags
//  4. Wire propagator, operation factory, tracer, and downstream client
//  5. Setup HTTP routes and middleware
//  6. Start HTTP server, advancing the node to Ready
//  7. Graceful shutdown on signal, advancing through Stopping to Stopped
//
// The server is the hosting layer: it is the only code that drives
// NodeContext lifecycle transitions.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.New(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
