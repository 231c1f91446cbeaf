package introspect

import (
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"
)

// readGauge/readCounter/sumCounterVec pull the current numeric value out
// of a prometheus metric for INFO rendering — INFO is a text snapshot,
// not a /metrics scrape, so these read the registry's live state
// directly rather than going through the exposition format.

func readGauge(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func readCounter(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func sumCounterVec(cv *prometheus.CounterVec) float64 {
	metricCh := make(chan prometheus.Metric, 64)
	go func() {
		cv.Collect(metricCh)
		close(metricCh)
	}()
	var total float64
	for metric := range metricCh {
		var m dto.Metric
		if err := metric.Write(&m); err == nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
