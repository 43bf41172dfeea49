package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	AccountsRegistered     uint64
	AccountsVerified       uint64
	AuthFailures           map[string]uint64
	APIKeysIssued          uint64
	APIKeysRevoked         uint64
	PastesCreated          map[string]uint64
	PasteCacheHits         uint64
	PasteCacheMisses       uint64
	PasteReadDurationCount uint64
	PasteReadDurationSumNs int64
	QuotaRejections        map[string]uint64
	HTTPRequests           uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	accountsRegistered     uint64
	accountsVerified       uint64
	apiKeysIssued          uint64
	apiKeysRevoked         uint64
	pasteCacheHits         uint64
	pasteCacheMisses       uint64
	pasteReadDurationCount uint64
	pasteReadDurationSumNs int64
	httpRequests           uint64

	mu              sync.Mutex
	authFailures    map[string]uint64
	pastesCreated   map[string]uint64
	quotaRejections map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authFailures:    make(map[string]uint64),
		pastesCreated:   make(map[string]uint64),
		quotaRejections: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		AccountsRegistered:     atomic.LoadUint64(&m.accountsRegistered),
		AccountsVerified:       atomic.LoadUint64(&m.accountsVerified),
		AuthFailures:           copyCounts(m.authFailures),
		APIKeysIssued:          atomic.LoadUint64(&m.apiKeysIssued),
		APIKeysRevoked:         atomic.LoadUint64(&m.apiKeysRevoked),
		PastesCreated:          copyCounts(m.pastesCreated),
		PasteCacheHits:         atomic.LoadUint64(&m.pasteCacheHits),
		PasteCacheMisses:       atomic.LoadUint64(&m.pasteCacheMisses),
		PasteReadDurationCount: atomic.LoadUint64(&m.pasteReadDurationCount),
		PasteReadDurationSumNs: atomic.LoadInt64(&m.pasteReadDurationSumNs),
		QuotaRejections:        copyCounts(m.quotaRejections),
		HTTPRequests:           atomic.LoadUint64(&m.httpRequests),
	}
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *InMemoryRecorder) incLabel(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

// IncAccountRegistered increments the registration counter.
func (m *InMemoryRecorder) IncAccountRegistered() {
	atomic.AddUint64(&m.accountsRegistered, 1)
}

// IncAccountVerified increments the verification counter.
func (m *InMemoryRecorder) IncAccountVerified() {
	atomic.AddUint64(&m.accountsVerified, 1)
}

// IncAuthFailure counts a failed authentication by kind.
func (m *InMemoryRecorder) IncAuthFailure(kind string) {
	m.incLabel(m.authFailures, kind)
}

// IncAPIKeyIssued increments the issued key counter.
func (m *InMemoryRecorder) IncAPIKeyIssued() {
	atomic.AddUint64(&m.apiKeysIssued, 1)
}

// IncAPIKeyRevoked increments the revoked key counter.
func (m *InMemoryRecorder) IncAPIKeyRevoked() {
	atomic.AddUint64(&m.apiKeysRevoked, 1)
}

// IncPasteCreated counts a created paste by type.
func (m *InMemoryRecorder) IncPasteCreated(pasteType string) {
	m.incLabel(m.pastesCreated, pasteType)
}

// IncPasteCacheHit increments the paste cache hit counter.
func (m *InMemoryRecorder) IncPasteCacheHit() {
	atomic.AddUint64(&m.pasteCacheHits, 1)
}

// IncPasteCacheMiss increments the paste cache miss counter.
func (m *InMemoryRecorder) IncPasteCacheMiss() {
	atomic.AddUint64(&m.pasteCacheMisses, 1)
}

// ObservePasteReadDuration records paste lookup duration.
func (m *InMemoryRecorder) ObservePasteReadDuration(duration time.Duration) {
	atomic.AddUint64(&m.pasteReadDurationCount, 1)
	atomic.AddInt64(&m.pasteReadDurationSumNs, duration.Nanoseconds())
}

// IncQuotaRejected counts a quota rejection by resource.
func (m *InMemoryRecorder) IncQuotaRejected(resource string) {
	m.incLabel(m.quotaRejections, resource)
}

// ObserveHTTPRequest counts served requests.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
}
