// Package metrics exports logger factory counters to Prometheus.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/philipp01105/conlog/core"
	"github.com/philipp01105/conlog/logger"
)

// StatsSource is implemented by *logger.Factory.
type StatsSource interface {
	Stats() logger.Stats
}

// Collector is a prometheus.Collector reading the counters of a factory
// on every scrape.
type Collector struct {
	source StatsSource

	written    *prometheus.Desc
	writeErrs  *prometheus.Desc
	dropped    *prometheus.Desc
	blocked    *prometheus.Desc
	suppressed *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for source. Metric names start with
// namespace, "conlog" when empty.
func NewCollector(source StatsSource, namespace string) *Collector {
	if namespace == "" {
		namespace = "conlog"
	}
	name := func(n string) string { return prometheus.BuildFQName(namespace, "", n) }

	return &Collector{
		source: source,
		written: prometheus.NewDesc(name("lines_written_total"),
			"Total number of log lines written", nil, nil),
		writeErrs: prometheus.NewDesc(name("write_errors_total"),
			"Total number of failed stream writes", nil, nil),
		dropped: prometheus.NewDesc(name("dropped_total"),
			"Total number of log calls dropped by a full queue", []string{"level"}, nil),
		blocked: prometheus.NewDesc(name("blocked_total"),
			"Total number of log calls written synchronously after waiting for a full queue", nil, nil),
		suppressed: prometheus.NewDesc(name("suppressed_total"),
			"Total number of messages suppressed as repeats", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.written
	ch <- c.writeErrs
	ch <- c.dropped
	ch <- c.blocked
	ch <- c.suppressed
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.written, prometheus.CounterValue, float64(s.Written))
	ch <- prometheus.MustNewConstMetric(c.writeErrs, prometheus.CounterValue, float64(s.WriteErrors))
	ch <- prometheus.MustNewConstMetric(c.blocked, prometheus.CounterValue, float64(s.Blocked))
	ch <- prometheus.MustNewConstMetric(c.suppressed, prometheus.CounterValue, float64(s.Suppressed))
	for _, level := range core.AllLevels() {
		ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue,
			float64(s.Dropped[level]), strings.ToLower(level.String()))
	}
}
