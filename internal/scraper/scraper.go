package scraper

import (
	"errors"
	"time"
)

var (
	ErrInvalidURL         = errors.New("invalid product URL")
	ErrSessionUnavailable = errors.New("browser session unavailable")
	ErrInitialNavigation  = errors.New("initial page load failed")
)

// Options controls the pacing and limits of one scrape.
type Options struct {
	Selectors Selectors

	// EntryTimeout bounds the wait for the "all reviews" entry point.
	EntryTimeout time.Duration
	// ClickPause sits between scrolling the entry point into view and clicking it.
	ClickPause time.Duration
	// ListingSettle follows the click so the listing view can render.
	ListingSettle time.Duration
	// PageInterval paces successive listing page fetches.
	PageInterval time.Duration
	// MaxPages caps listing fetches. Zero means no cap.
	MaxPages int
}

func DefaultOptions() Options {
	return Options{
		Selectors:     DefaultSelectors(),
		EntryTimeout:  10 * time.Second,
		ClickPause:    time.Second,
		ListingSettle: 3 * time.Second,
		PageInterval:  1500 * time.Millisecond,
	}
}
