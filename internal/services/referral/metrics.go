package referral

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NoopMetricsCollector discards every measurement.
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordComputation(result string, duration time.Duration) {}
func (n *NoopMetricsCollector) RecordCredit(level int, amount int64)                     {}
func (n *NoopMetricsCollector) RecordSkippedLink(level int)                              {}
func (n *NoopMetricsCollector) RecordCycle()                                             {}

// PrometheusCollector exports referral metrics.
type PrometheusCollector struct {
	computations   *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	credits        *prometheus.CounterVec
	creditedAmount *prometheus.CounterVec
	skippedLinks   *prometheus.CounterVec
	cycles         prometheus.Counter
}

// NewPrometheusCollector registers the referral metrics on reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)
	return &PrometheusCollector{
		computations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "referral",
			Name:      "computations_total",
			Help:      "Cashback computations by outcome",
		}, []string{"result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "referral",
			Name:      "computation_duration_seconds",
			Help:      "Time spent walking the invitation chain",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		credits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "referral",
			Name:      "credits_total",
			Help:      "Cashback credits applied per level",
		}, []string{"level"}),
		creditedAmount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "referral",
			Name:      "credited_minor_units_total",
			Help:      "Cashback credited in minor units per level",
		}, []string{"level"}),
		skippedLinks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "referral",
			Name:      "skipped_links_total",
			Help:      "Chain links skipped because an account is not BUSINESS",
		}, []string{"level"}),
		cycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "referral",
			Name:      "cycles_total",
			Help:      "Invitation cycles detected while walking a chain",
		}),
	}
}

func (p *PrometheusCollector) RecordComputation(result string, duration time.Duration) {
	p.computations.WithLabelValues(result).Inc()
	p.duration.WithLabelValues(result).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordCredit(level int, amount int64) {
	l := strconv.Itoa(level)
	p.credits.WithLabelValues(l).Inc()
	p.creditedAmount.WithLabelValues(l).Add(float64(amount))
}

func (p *PrometheusCollector) RecordSkippedLink(level int) {
	p.skippedLinks.WithLabelValues(strconv.Itoa(level)).Inc()
}

func (p *PrometheusCollector) RecordCycle() {
	p.cycles.Inc()
}
