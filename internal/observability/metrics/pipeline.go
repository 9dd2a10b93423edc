package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records stage timings, OCR page outcomes, translation
// fallbacks, index size and capability resilience events. It satisfies both
// the pipeline stage observer and the resilience observer.
type PipelineMetrics struct {
	service string

	stageDuration       *prometheus.HistogramVec
	stageTotal          *prometheus.CounterVec
	ocrPagesTotal       *prometheus.CounterVec
	translationFallback *prometheus.CounterVec
	indexSize           prometheus.Gauge
	retriesTotal        *prometheus.CounterVec
	breakerState        *prometheus.GaugeVec
}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		service: service,
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"service", "stage"},
		),
		stageTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_total",
				Help:      "Pipeline stage runs by status.",
			},
			[]string{"service", "stage", "status"},
		),
		ocrPagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ocr",
				Name:      "pages_total",
				Help:      "OCR page recognitions by status.",
			},
			[]string{"service", "status"},
		),
		translationFallback: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "translation",
				Name:      "fallback_total",
				Help:      "Translations that fell back to the original text.",
			},
			[]string{"service", "direction"},
		),
		indexSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   "index",
				Name:        "entries",
				Help:        "Entries in the similarity index.",
				ConstLabels: prometheus.Labels{"service": service},
			},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "capability",
				Name:      "retries_total",
				Help:      "Retried capability calls by operation.",
			},
			[]string{"service", "operation"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "capability",
				Name:      "breaker_open",
				Help:      "1 while the operation breaker is not closed.",
			},
			[]string{"service", "operation"},
		),
	}

	registerer.MustRegister(
		m.stageDuration,
		m.stageTotal,
		m.ocrPagesTotal,
		m.translationFallback,
		m.indexSize,
		m.retriesTotal,
		m.breakerState,
	)
	return m
}

func (m *PipelineMetrics) ObserveStage(stage, status string, seconds float64) {
	m.stageDuration.WithLabelValues(m.service, stage).Observe(seconds)
	m.stageTotal.WithLabelValues(m.service, stage, status).Inc()
}

func (m *PipelineMetrics) ObserveOCRPage(status string) {
	m.ocrPagesTotal.WithLabelValues(m.service, status).Inc()
}

func (m *PipelineMetrics) ObserveTranslationFallback(direction string) {
	m.translationFallback.WithLabelValues(m.service, direction).Inc()
}

func (m *PipelineMetrics) ObserveIndexSize(size int) {
	m.indexSize.Set(float64(size))
}

func (m *PipelineMetrics) ObserveRetry(operation string) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *PipelineMetrics) ObserveBreakerState(operation, state string) {
	open := 0.0
	if !strings.EqualFold(state, "closed") {
		open = 1
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(open)
}
