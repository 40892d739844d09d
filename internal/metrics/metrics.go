package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors for the review scraper.
// All methods are safe on a nil receiver.
type Metrics struct {
	Registry          *prometheus.Registry
	PagesFetched      *prometheus.CounterVec
	ReviewsAccepted   prometheus.Counter
	CardsSkipped      *prometheus.CounterVec
	Terminations      *prometheus.CounterVec
	FieldsUnavailable *prometheus.CounterVec
	ScrapeDuration    prometheus.Histogram
	ScrapesTotal      *prometheus.CounterVec
	OutboxPublished   *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_scraper_pages_fetched_total",
			Help: "Listing pages requested, by outcome.",
		},
		[]string{"outcome"},
	)
	accepted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "review_scraper_reviews_accepted_total",
			Help: "Reviews appended to a result after deduplication.",
		},
	)
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_scraper_cards_skipped_total",
			Help: "Review cards dropped, by reason.",
		},
		[]string{"reason"},
	)
	terminations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_scraper_terminations_total",
			Help: "Pagination runs that stopped, by reason.",
		},
		[]string{"reason"},
	)
	unavailable := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_scraper_fields_unavailable_total",
			Help: "Product fields that could not be read, by field.",
		},
		[]string{"field"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "review_scraper_scrape_duration_seconds",
			Help:    "Wall time of one scrape call.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
	scrapes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_scraper_scrapes_total",
			Help: "Scrape calls, by status.",
		},
		[]string{"status"},
	)
	outbox := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_scraper_outbox_events_total",
			Help: "Outbox events handled by the relay, by status.",
		},
		[]string{"status"},
	)

	registry.MustRegister(pages, accepted, skipped, terminations, unavailable, duration, scrapes, outbox)

	return &Metrics{
		Registry:          registry,
		PagesFetched:      pages,
		ReviewsAccepted:   accepted,
		CardsSkipped:      skipped,
		Terminations:      terminations,
		FieldsUnavailable: unavailable,
		ScrapeDuration:    duration,
		ScrapesTotal:      scrapes,
		OutboxPublished:   outbox,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncPage(outcome string) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncAccepted() {
	if m == nil {
		return
	}
	m.ReviewsAccepted.Inc()
}

func (m *Metrics) IncSkipped(reason string) {
	if m == nil {
		return
	}
	m.CardsSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncTermination(reason string) {
	if m == nil {
		return
	}
	m.Terminations.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncUnavailable(field string) {
	if m == nil {
		return
	}
	m.FieldsUnavailable.WithLabelValues(field).Inc()
}

// ObserveScrape records the duration and status of one scrape call.
func (m *Metrics) ObserveScrape(d time.Duration, status string) {
	if m == nil {
		return
	}
	m.ScrapeDuration.Observe(d.Seconds())
	m.ScrapesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncOutbox(status string) {
	if m == nil {
		return
	}
	m.OutboxPublished.WithLabelValues(status).Inc()
}
