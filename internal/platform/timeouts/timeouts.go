// Package timeouts defines shared timeout constants used across chatfeed.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// SourceRequest is the transport-level cap on one call to the message backend.
const SourceRequest = 10 * time.Second

// HealthCheck caps dependency probes made by the health endpoint.
const HealthCheck = 2 * time.Second
