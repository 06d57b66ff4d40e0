package telemetry

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/heliumapi/helium/internal/core/domain"
	"github.com/heliumapi/helium/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "helium"

// Provider records events, dependency calls and HTTP requests as
// Prometheus metrics on its own registry.
type Provider struct {
	registry *prometheus.Registry

	events             *prometheus.CounterVec
	dependencyDuration *prometheus.HistogramVec
	dependencyCharge   *prometheus.CounterVec
	dependencyCalls    *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

var _ ports.Telemetry = (*Provider)(nil)

func New() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Provider{
		registry: reg,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of tracked application events",
		}, []string{"name"}),
		dependencyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dependency_duration_seconds",
			Help:      "Duration of calls to external dependencies in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type", "operation", "success"}),
		dependencyCharge: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dependency_request_charge_total",
			Help:      "Request units consumed by calls to external dependencies",
		}, []string{"type", "operation"}),
		dependencyCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dependency_calls_total",
			Help:      "Total number of calls to external dependencies",
		}, []string{"type", "operation", "result_code"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

func (p *Provider) TrackEvent(name string) {
	p.events.WithLabelValues(name).Inc()
}

func (p *Provider) TrackDependency(dep domain.Dependency) {
	p.dependencyDuration.WithLabelValues(dep.Type, dep.Operation, strconv.FormatBool(dep.Success)).Observe(dep.Duration.Seconds())
	p.dependencyCalls.WithLabelValues(dep.Type, dep.Operation, dep.ResultCode).Inc()
	if dep.RequestCharge > 0 {
		p.dependencyCharge.WithLabelValues(dep.Type, dep.Operation).Add(dep.RequestCharge)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Middleware counts and times every request passing through it.
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := strconv.Itoa(ww.Status())
		p.httpRequests.WithLabelValues(r.Method, status).Inc()
		p.httpDuration.WithLabelValues(r.Method, status).Observe(time.Since(start).Seconds())
	})
}
