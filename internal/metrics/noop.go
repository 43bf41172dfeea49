package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncAccountRegistered()                                 {}
func (n *NoopRecorder) IncAccountVerified()                                   {}
func (n *NoopRecorder) IncAuthFailure(kind string)                            {}
func (n *NoopRecorder) IncAPIKeyIssued()                                      {}
func (n *NoopRecorder) IncAPIKeyRevoked()                                     {}
func (n *NoopRecorder) IncPasteCreated(pasteType string)                      {}
func (n *NoopRecorder) IncPasteCacheHit()                                     {}
func (n *NoopRecorder) IncPasteCacheMiss()                                    {}
func (n *NoopRecorder) ObservePasteReadDuration(duration time.Duration)       {}
func (n *NoopRecorder) IncQuotaRejected(resource string)                      {}
func (n *NoopRecorder) ObserveHTTPRequest(string, string, int, time.Duration) {}
