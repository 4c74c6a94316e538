package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tokgate/internal/server/workerpool"
)

// PoolSource reports worker pool counters.
type PoolSource interface {
	Stats() workerpool.Stats
}

// Table describes one capacity-bounded in-memory table.
type Table struct {
	Name     string
	Count    func() int
	Capacity int
}

// Collector reads pool and table state at scrape time.
type Collector struct {
	pool   PoolSource
	tables []Table

	poolWorkers   *prometheus.Desc
	poolCapacity  *prometheus.Desc
	poolPending   *prometheus.Desc
	poolActive    *prometheus.Desc
	poolCompleted *prometheus.Desc
	tableEntries  *prometheus.Desc
	tableCapacity *prometheus.Desc
}

// NewCollector creates a collector over pool (may be nil) and tables.
func NewCollector(pool PoolSource, tables ...Table) *Collector {
	return &Collector{
		pool:   pool,
		tables: tables,

		poolWorkers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "workers"),
			"Worker goroutines in the pool.", nil, nil),
		poolCapacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "queue_capacity"),
			"Task queue capacity.", nil, nil),
		poolPending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "queue_pending"),
			"Tasks waiting in the queue.", nil, nil),
		poolActive: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "tasks_active"),
			"Tasks currently executing.", nil, nil),
		poolCompleted: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "tasks_completed_total"),
			"Tasks finished, including those that panicked.", nil, nil),
		tableEntries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "security", "table_entries"),
			"Entries held in a security table.", []string{"table"}, nil),
		tableCapacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "security", "table_capacity"),
			"Configured size of a security table.", []string{"table"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	if c.pool != nil {
		ch <- c.poolWorkers
		ch <- c.poolCapacity
		ch <- c.poolPending
		ch <- c.poolActive
		ch <- c.poolCompleted
	}
	if len(c.tables) > 0 {
		ch <- c.tableEntries
		ch <- c.tableCapacity
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.pool != nil {
		s := c.pool.Stats()
		ch <- prometheus.MustNewConstMetric(c.poolWorkers, prometheus.GaugeValue, float64(s.Workers))
		ch <- prometheus.MustNewConstMetric(c.poolCapacity, prometheus.GaugeValue, float64(s.Capacity))
		ch <- prometheus.MustNewConstMetric(c.poolPending, prometheus.GaugeValue, float64(s.Pending))
		ch <- prometheus.MustNewConstMetric(c.poolActive, prometheus.GaugeValue, float64(s.Active))
		ch <- prometheus.MustNewConstMetric(c.poolCompleted, prometheus.CounterValue, float64(s.Completed))
	}
	for _, t := range c.tables {
		ch <- prometheus.MustNewConstMetric(c.tableEntries, prometheus.GaugeValue, float64(t.Count()), t.Name)
		ch <- prometheus.MustNewConstMetric(c.tableCapacity, prometheus.GaugeValue, float64(t.Capacity), t.Name)
	}
}
