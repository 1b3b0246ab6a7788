package metrics

import (
	"net/http"
	"strconv"
	"time"

	"configurator-shopify-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "configurator"

// Prometheus records business and HTTP metrics on its own registry
type Prometheus struct {
	registry *prometheus.Registry

	cartsBuilt      *prometheus.CounterVec
	cartURLLength   prometheus.Histogram
	sizesSkipped    prometheus.Counter
	designsSaved    *prometheus.CounterVec
	designsLoaded   *prometheus.CounterVec
	proxyRequests   *prometheus.CounterVec
	webhooks        *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var _ ports.Metrics = (*Prometheus)(nil)

// NewPrometheus creates and registers all collectors
func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()

	p := &Prometheus{
		registry: registry,
		cartsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carts_built_total",
			Help:      "Cart URL builds by result.",
		}, []string{"result"}),
		cartURLLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cart_url_length_bytes",
			Help:      "Length of generated cart URLs.",
			Buckets:   []float64{256, 512, 1024, 1536, 2048, 4096},
		}),
		sizesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_sizes_skipped_total",
			Help:      "Requested sizes without a matching variant.",
		}),
		designsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "designs_saved_total",
			Help:      "Design saves by result.",
		}, []string{"result"}),
		designsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "designs_loaded_total",
			Help:      "Design loads by result.",
		}, []string{"result"}),
		proxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storefront_proxy_requests_total",
			Help:      "Forwarded GraphQL requests by action and upstream status.",
		}, []string{"action", "status"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_received_total",
			Help:      "Verified webhook deliveries by topic.",
		}, []string{"topic"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	registry.MustRegister(
		p.cartsBuilt,
		p.cartURLLength,
		p.sizesSkipped,
		p.designsSaved,
		p.designsLoaded,
		p.proxyRequests,
		p.webhooks,
		p.httpRequests,
		p.requestDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return p
}

// Handler serves the registry in the Prometheus exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry exposes the underlying registry (for tests)
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Prometheus) CartBuilt(result string, urlLength int) {
	p.cartsBuilt.WithLabelValues(result).Inc()
	if urlLength > 0 {
		p.cartURLLength.Observe(float64(urlLength))
	}
}

func (p *Prometheus) SizesSkipped(n int) {
	if n > 0 {
		p.sizesSkipped.Add(float64(n))
	}
}

func (p *Prometheus) DesignSaved(result string) {
	p.designsSaved.WithLabelValues(result).Inc()
}

func (p *Prometheus) DesignLoaded(result string) {
	p.designsLoaded.WithLabelValues(result).Inc()
}

func (p *Prometheus) ProxyRequest(action string, status int) {
	p.proxyRequests.WithLabelValues(action, strconv.Itoa(status)).Inc()
}

func (p *Prometheus) WebhookReceived(topic string) {
	p.webhooks.WithLabelValues(topic).Inc()
}

// Middleware records request count and latency labelled by the chi route pattern
func (p *Prometheus) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		p.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		p.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
