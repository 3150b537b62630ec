package metrics

import "github.com/prometheus/client_golang/prometheus"

// Monitor holds the Prometheus registry and all crawl metrics.
type Monitor struct {
	Registry *prometheus.Registry

	VenuesScraped      *prometheus.CounterVec
	VenuesFailed       *prometheus.CounterVec
	ListingPages       *prometheus.CounterVec
	CheckpointsWritten *prometheus.CounterVec
	CategoryDuration   *prometheus.GaugeVec
	ExportRunning      *prometheus.GaugeVec
}

// New creates a Monitor with every metric registered.
func New() *Monitor {
	reg := prometheus.NewRegistry()
	monitor := &Monitor{
		Registry: reg,

		VenuesScraped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_venues_scraped_total",
			Help: "Venue detail pages parsed successfully",
		}, []string{"category"}),

		VenuesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_venues_failed_total",
			Help: "Venue detail pages that could not be fetched or parsed",
		}, []string{"category"}),

		ListingPages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_listing_pages_total",
			Help: "Category listing pages loaded",
		}, []string{"category"}),

		CheckpointsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_checkpoints_written_total",
			Help: "Checkpoint files written",
		}, []string{}),

		CategoryDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scraper_category_duration_seconds",
			Help: "Wall time of the last crawl of a category",
		}, []string{"category"}),

		ExportRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scraper_export_running",
			Help: "Is an export in progress (1) or idle (0)",
		}, []string{}),
	}

	reg.MustRegister(
		monitor.VenuesScraped,
		monitor.VenuesFailed,
		monitor.ListingPages,
		monitor.CheckpointsWritten,
		monitor.CategoryDuration,
		monitor.ExportRunning,
	)

	return monitor
}

// Total sums every series of the named counter or gauge. Unknown names
// and gather errors yield 0.
func (m *Monitor) Total(name string) float64 {
	families, err := m.Registry.Gather()
	if err != nil {
		return 0
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue() + metric.GetGauge().GetValue()
		}
	}
	return total
}
