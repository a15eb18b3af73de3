package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	invoiceOps     *prometheus.CounterVec
	documents      *prometheus.CounterVec
	renderDuration prometheus.Histogram
}

// New registers the invoice collectors on registerer (the default registry when nil).
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		invoiceOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invoice_operations_total",
			Help: "Invoice create/update/list calls by outcome.",
		}, []string{"operation", "outcome"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invoice_documents_total",
			Help: "Document pipeline runs by stage reached and outcome.",
		}, []string{"stage", "outcome"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "invoice_render_duration_seconds",
			Help:    "Wall time of one wkhtmltopdf run.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
	registerer.MustRegister(m.invoiceOps, m.documents, m.renderDuration)
	return m
}

func (m *Metrics) InvoiceOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.invoiceOps.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) DocumentStage(stage string, err error) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(stage, outcome(err)).Inc()
}

func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
