package metrics

import "github.com/prometheus/client_golang/prometheus"

// StorefrontMetrics exposes counters/histograms for storefront flows.
type StorefrontMetrics struct {
	availabilityFetches *prometheus.CounterVec
	staleDiscards       prometheus.Counter
	bookingSubmissions  *prometheus.CounterVec
	fetchLatency        *prometheus.HistogramVec
}

func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	m := &StorefrontMetrics{
		availabilityFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "availability",
			Name:      "fetch_total",
			Help:      "Total availability fetches by kind and outcome",
		}, []string{"kind", "outcome"}),
		staleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "availability",
			Name:      "stale_response_discarded_total",
			Help:      "Slot responses discarded because the date was deselected",
		}),
		bookingSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "booking",
			Name:      "submission_total",
			Help:      "Total booking submissions by outcome",
		}, []string{"outcome"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "availability",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of upstream availability fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.availabilityFetches, m.staleDiscards, m.bookingSubmissions, m.fetchLatency)
	return m
}

func (m *StorefrontMetrics) ObserveFetch(kind, outcome string) {
	if m == nil {
		return
	}
	m.availabilityFetches.WithLabelValues(kind, outcome).Inc()
}

func (m *StorefrontMetrics) ObserveStaleDiscard() {
	if m == nil {
		return
	}
	m.staleDiscards.Inc()
}

func (m *StorefrontMetrics) ObserveBookingSubmission(outcome string) {
	if m == nil {
		return
	}
	m.bookingSubmissions.WithLabelValues(outcome).Inc()
}

func (m *StorefrontMetrics) ObserveFetchLatency(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.fetchLatency.WithLabelValues(kind).Observe(seconds)
}
