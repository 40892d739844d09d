package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/browser"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/config"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserOptions(t *testing.T) {
	cfg := config.BrowserConfig{
		Headless:           false,
		Timeout:            45 * time.Second,
		ViewportWidth:      1280,
		ViewportHeight:     720,
		AcceptLanguage:     "en-IN",
		TimezoneID:         "Asia/Kolkata",
		Locale:             "en-IN",
		SettleDelay:        500 * time.Millisecond,
		NavigationAttempts: 3,
	}

	opts := browserOptions(cfg, config.ScraperConfig{ClickPause: 250 * time.Millisecond})

	assert.False(t, opts.Headless)
	assert.Equal(t, 45*time.Second, opts.Timeout)
	assert.Equal(t, browser.DefaultOptions().UserAgent, opts.UserAgent, "empty user agent keeps the default")
	assert.Equal(t, 1280, opts.ViewportWidth)
	assert.Equal(t, 500*time.Millisecond, opts.SettleDelay)
	assert.Equal(t, 250*time.Millisecond, opts.ClickPause)
	assert.Equal(t, 3, opts.NavigationAttempts)

	cfg.UserAgent = "review-bot/1.0"
	assert.Equal(t, "review-bot/1.0", browserOptions(cfg, config.ScraperConfig{}).UserAgent)
}

func TestScraperOptions(t *testing.T) {
	opts := scraperOptions(config.ScraperConfig{
		EntryTimeout:  5 * time.Second,
		ClickPause:    time.Second,
		ListingSettle: 2 * time.Second,
		PageInterval:  time.Second,
		MaxPages:      7,
		PageParam:     "p",
	})

	assert.Equal(t, 5*time.Second, opts.EntryTimeout)
	assert.Equal(t, 7, opts.MaxPages)
	assert.Equal(t, "p", opts.Selectors.PageParam)
	assert.NotEmpty(t, opts.Selectors.Card.CSS)

	assert.Equal(t, "page", scraperOptions(config.ScraperConfig{}).Selectors.PageParam)
}

func TestDatabaseConfig(t *testing.T) {
	db := databaseConfig(config.DatabaseConfig{
		Host:            "db",
		Port:            5433,
		User:            "scraper",
		Password:        "secret",
		Name:            "reviews",
		SSLMode:         "require",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	})

	assert.Equal(t, "reviews", db.Database)
	assert.Equal(t, int32(4), db.MaxConns)
	assert.Equal(t, int32(1), db.MinConns)
	assert.Equal(t, time.Hour, db.MaxConnLife)
	assert.Equal(t, time.Minute, db.MaxConnIdle)
	assert.Equal(t, "postgres://scraper:secret@db:5433/reviews?sslmode=require", db.DSN())
}

func TestNewOpenerStatic(t *testing.T) {
	src, err := newOpener(true, browser.DefaultOptions())
	require.NoError(t, err)
	assert.NoError(t, src.Close())
}

func TestRenderSummary(t *testing.T) {
	result := &models.Result{
		Product: models.ProductRecord{
			Title:  models.Value("boAt Rockerz 450"),
			Price:  models.Value("1,499"),
			Rating: models.Unavailable,
		},
		Reviews: []models.ReviewRecord{
			{Rating: "5", Title: "Superb", Content: "a"},
			{Rating: "5", Title: "Great", Content: "b"},
			{Rating: "1", Title: "Broke", Content: "c"},
		},
		Termination:  models.TerminationNoNewContent,
		PagesFetched: 4,
	}

	var buf bytes.Buffer
	renderSummary(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "boAt Rockerz 450")
	assert.Contains(t, out, models.UnavailableText)
	assert.Contains(t, out, "5★")
	assert.Contains(t, out, "1★")
	assert.Contains(t, out, "pages fetched: 4, stopped: no_new_content")
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []int{5, 3, 0}, sortedKeys(map[int]int{0: 1, 5: 2, 3: 1}))
}
