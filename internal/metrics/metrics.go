// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Quota resources reported by IncQuotaRejected.
const (
	ResourceAPIKey = "api_key"
	ResourcePaste  = "paste"
)

// Auth failure kinds reported by IncAuthFailure.
const (
	AuthLogin  = "login"
	AuthOTP    = "otp"
	AuthAPIKey = "api_key"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account lifecycle
	IncAccountRegistered()
	IncAccountVerified()
	IncAuthFailure(kind string)

	// API keys
	IncAPIKeyIssued()
	IncAPIKeyRevoked()

	// Pastes
	IncPasteCreated(pasteType string)
	IncPasteCacheHit()
	IncPasteCacheMiss()
	ObservePasteReadDuration(duration time.Duration)

	IncQuotaRejected(resource string)

	// HTTP
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
