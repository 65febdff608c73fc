package metrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase"
)

// Metrics owns the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	StoreOperations *prometheus.CounterVec
	StoreItems      *prometheus.GaugeVec
	BufferItems     prometheus.Gauge
	BackendUp       *prometheus.GaugeVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		StoreOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealease_store_operations_total",
				Help: "Store operations by outcome",
			},
			[]string{"store", "operation", "result"},
		),
		StoreItems: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dealease_store_items",
				Help: "Number of items held per store",
			},
			[]string{"store"},
		),
		BufferItems: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dealease_buffer_items",
				Help: "Writes waiting in the offline buffer",
			},
		),
		BackendUp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dealease_backend_up",
				Help: "1 when the last connectivity check succeeded",
			},
			[]string{"backend"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealease_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dealease_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Observe counts a store operation. Failures are labelled with their error code.
func (m *Metrics) Observe(store, operation string, err error) {
	m.StoreOperations.WithLabelValues(store, operation, result(err)).Inc()
}

func (m *Metrics) SetSize(store string, size int) {
	m.StoreItems.WithLabelValues(store).Set(float64(size))
}

func (m *Metrics) SetBufferSize(n int) {
	m.BufferItems.Set(float64(n))
}

func (m *Metrics) SetBackendUp(backend string, up bool) {
	var v float64
	if up {
		v = 1
	}
	m.BackendUp.WithLabelValues(backend).Set(v)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Instrument records request count and latency under a fixed route label.
func (m *Metrics) Instrument(route string, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		method := string(ctx.Method())
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Response.StatusCode())).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		return strings.ToLower(string(derr.Code))
	}
	return "error"
}

var _ usecase.StoreMetrics = (*Metrics)(nil)
