package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncPage("ok")
		m.IncAccepted()
		m.IncSkipped("unreadable_rating")
		m.IncTermination("end_of_pages")
		m.IncUnavailable("price")
		m.ObserveScrape(time.Second, "ok")
		m.IncOutbox("published")
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.IncPage("ok")
	m.IncPage("ok")
	m.IncPage("empty")
	m.IncAccepted()
	m.IncSkipped("summary_row")
	m.IncTermination("no_new_content")
	m.ObserveScrape(2*time.Second, "ok")

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `review_scraper_pages_fetched_total{outcome="ok"} 2`)
	assert.Contains(t, text, `review_scraper_pages_fetched_total{outcome="empty"} 1`)
	assert.Contains(t, text, "review_scraper_reviews_accepted_total 1")
	assert.Contains(t, text, `review_scraper_cards_skipped_total{reason="summary_row"} 1`)
	assert.Contains(t, text, `review_scraper_terminations_total{reason="no_new_content"} 1`)
	assert.Contains(t, text, `review_scraper_scrapes_total{status="ok"} 1`)
	assert.Contains(t, text, "review_scraper_scrape_duration_seconds_count 1")
}
