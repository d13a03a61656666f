// Package config provides 12-factor configuration management for a Grid
// node.
//
// Configuration is loaded from environment variables with sensible
// defaults. Node identity (node id, studio id, environment) arrives
// pre-validated; loading only rejects empty values.
//
// Configuration Sections:
//   - Node: Grid identity stamped onto root contexts
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Downstr: Outbound downstream client settings
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Node %s running on %s:%s\n", cfg.Node.ID, cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - GRID_NODE_ID, GRID_STUDIO_ID, GRID_ENVIRONMENT, GRID_NODE_VERSION, GRID_NODE_TAGS_FILE
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - DOWNSTREAM_TIMEOUT_SECONDS, DOWNSTREAM_MAX_RETRIES
package config
