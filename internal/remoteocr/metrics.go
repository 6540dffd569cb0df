package remoteocr

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the OCR gateway. All methods are
// nil-safe so a gateway can run without instrumentation.
type Metrics struct {
	requestsTotal *prometheus.CounterVec
	attemptsTotal *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewMetrics creates and registers the gateway metrics. Call once per
// process.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docgate_ocr_requests_total",
				Help: "Total number of OCR parse requests",
			},
			[]string{"backend", "outcome"},
		),
		attemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docgate_ocr_attempts_total",
				Help: "Total number of transport attempts against OCR backends",
			},
			[]string{"backend"},
		),
		failuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docgate_ocr_failures_total",
				Help: "Total number of OCR parse failures by classified kind",
			},
			[]string{"backend", "kind"},
		),
		duration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docgate_ocr_duration_seconds",
				Help:    "OCR parse latency in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"backend"},
		),
	}
}

func (m *Metrics) observeAttempt(backend Engine) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(string(backend)).Inc()
}

func (m *Metrics) observeParse(backend Engine, fail *Failure, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if fail != nil {
		outcome = "failure"
		m.failuresTotal.WithLabelValues(string(backend), string(fail.Kind)).Inc()
	}
	m.requestsTotal.WithLabelValues(string(backend), outcome).Inc()
	m.duration.WithLabelValues(string(backend)).Observe(elapsed.Seconds())
}
