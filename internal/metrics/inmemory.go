package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ListCacheHits     uint64
	ListCacheMisses   uint64
	RateLimitRejected uint64
	AuthFailures      uint64
	LoginSuccesses    uint64
	LoginFailures     uint64
	UsersRegistered   uint64
	UsersUpdated      uint64
	UsersDeleted      uint64
}

// InMemoryRecorder stores counters in memory. Backs the /metrics endpoint
// and is also used in tests.
type InMemoryRecorder struct {
	listCacheHits     uint64
	listCacheMisses   uint64
	rateLimitRejected uint64
	authFailures      uint64
	loginSuccesses    uint64
	loginFailures     uint64
	usersRegistered   uint64
	usersUpdated      uint64
	usersDeleted      uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ListCacheHits:     atomic.LoadUint64(&m.listCacheHits),
		ListCacheMisses:   atomic.LoadUint64(&m.listCacheMisses),
		RateLimitRejected: atomic.LoadUint64(&m.rateLimitRejected),
		AuthFailures:      atomic.LoadUint64(&m.authFailures),
		LoginSuccesses:    atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:     atomic.LoadUint64(&m.loginFailures),
		UsersRegistered:   atomic.LoadUint64(&m.usersRegistered),
		UsersUpdated:      atomic.LoadUint64(&m.usersUpdated),
		UsersDeleted:      atomic.LoadUint64(&m.usersDeleted),
	}
}

// IncListCacheHit increments the listing cache hit counter.
func (m *InMemoryRecorder) IncListCacheHit() {
	atomic.AddUint64(&m.listCacheHits, 1)
}

// IncListCacheMiss increments the listing cache miss counter.
func (m *InMemoryRecorder) IncListCacheMiss() {
	atomic.AddUint64(&m.listCacheMisses, 1)
}

// IncRateLimitRejected increments the rejected admission counter.
func (m *InMemoryRecorder) IncRateLimitRejected() {
	atomic.AddUint64(&m.rateLimitRejected, 1)
}

// IncAuthFailure increments the token verification failure counter.
func (m *InMemoryRecorder) IncAuthFailure() {
	atomic.AddUint64(&m.authFailures, 1)
}

// IncLoginSuccess increments the successful login counter.
func (m *InMemoryRecorder) IncLoginSuccess() {
	atomic.AddUint64(&m.loginSuccesses, 1)
}

// IncLoginFailure increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailure() {
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncUserUpdated increments the update counter.
func (m *InMemoryRecorder) IncUserUpdated() {
	atomic.AddUint64(&m.usersUpdated, 1)
}

// IncUserDeleted increments the deletion counter.
func (m *InMemoryRecorder) IncUserDeleted() {
	atomic.AddUint64(&m.usersDeleted, 1)
}
