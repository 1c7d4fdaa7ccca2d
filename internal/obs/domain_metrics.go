package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PaymentOrderTotal counts order-intent outcomes by gateway.
	PaymentOrderTotal *prometheus.CounterVec
	// PaymentVerifyTotal counts payment callback verification outcomes.
	PaymentVerifyTotal *prometheus.CounterVec
	// CatalogListTotal counts product listing queries by outcome.
	CatalogListTotal *prometheus.CounterVec
	// CatalogCacheTotal counts detail/category cache lookups by outcome.
	CatalogCacheTotal *prometheus.CounterVec
	// GatewayRequestDuration records outbound gateway latency in milliseconds.
	GatewayRequestDuration *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PaymentOrderTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_order_total",
			Help:      "Count of order-intent creation outcomes.",
		}, []string{"provider", "result"}))
		PaymentVerifyTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verify_total",
			Help:      "Count of payment callback verification outcomes.",
		}, []string{"result"}))
		CatalogListTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_list_total",
			Help:      "Count of product listing queries by outcome.",
		}, []string{"result"}))
		CatalogCacheTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Count of catalog cache lookups by outcome.",
		}, []string{"kind", "result"}))
		GatewayRequestDuration = registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_ms",
			Help:      "Latency of outbound payment gateway calls in milliseconds.",
			Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"target", "status"}))
	})
}

// Inc increments a labelled counter when the collector has been registered.
func Inc(vec *prometheus.CounterVec, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}
