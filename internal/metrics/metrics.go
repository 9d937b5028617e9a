// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Listing cache metrics
	IncListCacheHit()
	IncListCacheMiss()

	// Admission control metrics
	IncRateLimitRejected()

	// Authentication metrics
	IncAuthFailure()
	IncLoginSuccess()
	IncLoginFailure()

	// Account lifecycle metrics
	IncUserRegistered()
	IncUserUpdated()
	IncUserDeleted()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
