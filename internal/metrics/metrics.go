package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the console.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Remote API metrics.
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec

	// Modal metrics.
	ModalsOpen          prometheus.Gauge
	ModalLoadsTotal     *prometheus.CounterVec
	ModalLoadDuration   *prometheus.HistogramVec
	ModalEvictionsTotal prometheus.Counter

	// Session metrics.
	SessionEventsTotal  *prometheus.CounterVec
	SessionsPurgedTotal prometheus.Counter

	// Domain events published on the in-process bus.
	EventsTotal *prometheus.CounterVec

	ServerStartTime prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_console_http_requests_total",
			Help: "Total number of HTTP requests served by the console.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "expense_console_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		BackendRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_console_backend_requests_total",
			Help: "Total number of requests sent to the expense API.",
		}, []string{"code", "method"}),

		BackendRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "expense_console_backend_request_duration_seconds",
			Help:    "Expense API request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"code", "method"}),

		ModalsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "expense_console_modals_open",
			Help: "Number of modal instances currently registered.",
		}),

		ModalLoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_console_modal_loads_total",
			Help: "Total number of modal data loads by outcome.",
		}, []string{"kind", "outcome"}),

		ModalLoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "expense_console_modal_load_duration_seconds",
			Help:    "Modal data load duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),

		ModalEvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expense_console_modal_evictions_total",
			Help: "Total number of idle modal instances evicted.",
		}),

		SessionEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_console_session_events_total",
			Help: "Total number of session transitions.",
		}, []string{"event"}),

		SessionsPurgedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expense_console_sessions_purged_total",
			Help: "Total number of expired session entries deleted.",
		}),

		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_console_events_total",
			Help: "Total number of domain events published.",
		}, []string{"type"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "expense_console_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BackendRequestsTotal,
		m.BackendRequestDuration,
		m.ModalsOpen,
		m.ModalLoadsTotal,
		m.ModalLoadDuration,
		m.ModalEvictionsTotal,
		m.SessionEventsTotal,
		m.SessionsPurgedTotal,
		m.EventsTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentTransport wraps an outbound transport with request counters and
// latency histograms for calls to the expense API.
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperCounter(m.BackendRequestsTotal,
		promhttp.InstrumentRoundTripperDuration(m.BackendRequestDuration, next))
}

func (m *Metrics) ObserveHTTPRequest(method, pattern string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pattern).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveModalLoad(kind string, failed bool, elapsed time.Duration) {
	outcome := "ready"
	if failed {
		outcome = "failed"
	}
	m.ModalLoadsTotal.WithLabelValues(kind, outcome).Inc()
	m.ModalLoadDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) IncModalsOpen() {
	m.ModalsOpen.Inc()
}

func (m *Metrics) DecModalsOpen() {
	m.ModalsOpen.Dec()
}

func (m *Metrics) IncModalEvictions(n int) {
	m.ModalEvictionsTotal.Add(float64(n))
}

func (m *Metrics) IncSessionEvent(event string) {
	m.SessionEventsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) AddSessionsPurged(n int64) {
	m.SessionsPurgedTotal.Add(float64(n))
}

func (m *Metrics) IncEvent(eventType string) {
	m.EventsTotal.WithLabelValues(eventType).Inc()
}
