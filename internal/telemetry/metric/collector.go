package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorldSample is a point-in-time view of a running simulation.
type WorldSample struct {
	Time       float64
	Iteration  uint64
	Pending    int
	Complexes  int
	Population map[string]int64
}

// Collector samples live world state on every scrape.
type Collector struct {
	sample func() WorldSample

	time       *prometheus.Desc
	iteration  *prometheus.Desc
	pending    *prometheus.Desc
	complexes  *prometheus.Desc
	population *prometheus.Desc
}

// NewCollector creates a collector around sample. sample is called from
// the scrape goroutine and must synchronize with the simulation itself.
func NewCollector(sample func() WorldSample) *Collector {
	return &Collector{
		sample:     sample,
		time:       prometheus.NewDesc(namespace+"_simulation_time_seconds", "Current simulation time.", nil, nil),
		iteration:  prometheus.NewDesc(namespace+"_simulation_iteration", "Current iteration number.", nil, nil),
		pending:    prometheus.NewDesc(namespace+"_scheduler_pending", "Live molecules waiting in the schedulers.", nil, nil),
		complexes:  prometheus.NewDesc(namespace+"_complexes", "Live macromolecular complexes.", nil, nil),
		population: prometheus.NewDesc(namespace+"_species_population", "Live molecules per species.", []string{"species"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.time
	ch <- c.iteration
	ch <- c.pending
	ch <- c.complexes
	ch <- c.population
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.sample()
	ch <- prometheus.MustNewConstMetric(c.time, prometheus.GaugeValue, s.Time)
	ch <- prometheus.MustNewConstMetric(c.iteration, prometheus.GaugeValue, float64(s.Iteration))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.Pending))
	ch <- prometheus.MustNewConstMetric(c.complexes, prometheus.GaugeValue, float64(s.Complexes))
	for name, n := range s.Population {
		ch <- prometheus.MustNewConstMetric(c.population, prometheus.GaugeValue, float64(n), name)
	}
}
