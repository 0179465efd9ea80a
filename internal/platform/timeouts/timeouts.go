// Package timeouts defines shared timeout constants used across the service.
// Centralizing these values keeps the durations discoverable.
package timeouts

import "time"

// AuthRequest caps a single call to the hosted auth backend.
const AuthRequest = 10 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// TelemetryShutdown limits span flushing on exit.
const TelemetryShutdown = 5 * time.Second

// ECPProcessing is the default simulated processing time for an ECP submission.
const ECPProcessing = 900 * time.Millisecond

// SessionRefreshMargin is how close to expiry an access token gets refreshed.
const SessionRefreshMargin = time.Minute
