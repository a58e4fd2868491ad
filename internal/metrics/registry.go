package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/davidleathers/taxid-validator/internal/domain/values"
)

// Collector holds the identifier validation metrics
type Collector struct {
	validations *prometheus.CounterVec
	batchSize   prometheus.Histogram
}

// NewCollector creates the metrics and registers them with reg
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taxid",
				Name:      "validations_total",
				Help:      "Identifiers validated, by detected kind and result",
			},
			[]string{"kind", "result"},
		),
		batchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "taxid",
				Name:      "batch_size",
				Help:      "Number of identifiers per batch",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8), // 1 to 16384
			},
		),
	}

	for _, col := range []prometheus.Collector{c.validations, c.batchSize} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("registering metric: %w", err)
		}
	}

	return c, nil
}

// Observe counts one validation
func (c *Collector) Observe(kind values.Kind, valid bool) {
	c.validations.WithLabelValues(kind.String(), resultLabel(valid)).Inc()
}

// ObserveBatch records the size of a batch
func (c *Collector) ObserveBatch(n int) {
	c.batchSize.Observe(float64(n))
}

func resultLabel(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}

// WriteText renders every metric family from g in the Prometheus text format
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
