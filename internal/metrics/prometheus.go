package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "yuvipaste"

// PrometheusRecorder exports metrics through a private Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	accountsRegistered prometheus.Counter
	accountsVerified   prometheus.Counter
	authFailures       *prometheus.CounterVec
	apiKeysIssued      prometheus.Counter
	apiKeysRevoked     prometheus.Counter
	pastesCreated      *prometheus.CounterVec
	pasteCache         *prometheus.CounterVec
	pasteReadDuration  prometheus.Histogram
	quotaRejections    *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewPrometheus creates a recorder with Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &PrometheusRecorder{
		registry: reg,
		accountsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_registered_total",
			Help:      "Accounts registered.",
		}),
		accountsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_verified_total",
			Help:      "Accounts that completed OTP verification.",
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Failed authentication attempts by kind.",
		}, []string{"kind"}),
		apiKeysIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_keys_issued_total",
			Help:      "API keys issued.",
		}),
		apiKeysRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_keys_revoked_total",
			Help:      "API keys revoked.",
		}),
		pastesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pastes_created_total",
			Help:      "Pastes created by type.",
		}, []string{"type"}),
		pasteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paste_cache_lookups_total",
			Help:      "Paste cache lookups by result.",
		}, []string{"result"}),
		pasteReadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "paste_read_duration_seconds",
			Help:      "Paste lookup latency.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		quotaRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Requests rejected by a per-account quota.",
		}, []string{"resource"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		p.accountsRegistered,
		p.accountsVerified,
		p.authFailures,
		p.apiKeysIssued,
		p.apiKeysRevoked,
		p.pastesCreated,
		p.pasteCache,
		p.pasteReadDuration,
		p.quotaRejections,
		p.httpRequests,
		p.httpDuration,
	)
	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncAccountRegistered()      { p.accountsRegistered.Inc() }
func (p *PrometheusRecorder) IncAccountVerified()        { p.accountsVerified.Inc() }
func (p *PrometheusRecorder) IncAuthFailure(kind string) { p.authFailures.WithLabelValues(kind).Inc() }
func (p *PrometheusRecorder) IncAPIKeyIssued()           { p.apiKeysIssued.Inc() }
func (p *PrometheusRecorder) IncAPIKeyRevoked()          { p.apiKeysRevoked.Inc() }
func (p *PrometheusRecorder) IncPasteCacheHit()          { p.pasteCache.WithLabelValues("hit").Inc() }
func (p *PrometheusRecorder) IncPasteCacheMiss()         { p.pasteCache.WithLabelValues("miss").Inc() }

func (p *PrometheusRecorder) IncPasteCreated(pasteType string) {
	p.pastesCreated.WithLabelValues(pasteType).Inc()
}

func (p *PrometheusRecorder) ObservePasteReadDuration(duration time.Duration) {
	p.pasteReadDuration.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncQuotaRejected(resource string) {
	p.quotaRejections.WithLabelValues(resource).Inc()
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
