// Package metrics counts entry-point outcomes with prometheus.
//
// A Collector implements database.Observer; pass it to every record kind
// with database.WithObserver.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/wippyai/libnss"
)

// Collector counts calls by database, operation and status.
type Collector struct {
	lookups *prometheus.CounterVec
}

// New creates a Collector and registers it on reg. A nil reg leaves the
// collector unregistered.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "libnss",
				Name:      "lookups_total",
				Help:      "NSS entry-point calls by database, operation and status.",
			},
			[]string{"database", "op", "status"},
		),
	}
	if reg != nil {
		if err := reg.Register(c.lookups); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Observe implements database.Observer.
func (c *Collector) Observe(database, op string, status libnss.Status) {
	c.lookups.WithLabelValues(database, op, status.String()).Inc()
}

// Count returns the current value of one counter.
func (c *Collector) Count(database, op string, status libnss.Status) float64 {
	m, err := c.lookups.GetMetricWithLabelValues(database, op, status.String())
	if err != nil {
		return 0
	}
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		return 0
	}
	return out.GetCounter().GetValue()
}

// WriteText writes every metric gathered by g in the prometheus text
// exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
