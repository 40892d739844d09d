package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/browser"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/ratelimit"
)

// Outcome reports whether the listing view was entered.
type Outcome int

const (
	NotFound Outcome = iota
	Entered
)

func (o Outcome) String() string {
	if o == Entered {
		return "entered"
	}
	return "not_found"
}

// Navigator moves a session from the landing page into the review listing.
type Navigator struct {
	entry      browser.Locator
	timeout    time.Duration
	clickPause time.Duration
	settle     time.Duration
	logger     *slog.Logger
}

func NewNavigator(opts Options, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		entry:      opts.Selectors.AllReviews,
		timeout:    opts.EntryTimeout,
		clickPause: opts.ClickPause,
		settle:     opts.ListingSettle,
		logger:     logger.With("component", "navigator"),
	}
}

// Activate clicks the "all reviews" entry point. A missing or unusable entry
// point is NotFound, which is not an error: products with few reviews have
// no listing. Errors are returned only when ctx is done.
func (n *Navigator) Activate(ctx context.Context, s browser.Session) (Outcome, error) {
	link, err := s.WaitClickable(ctx, n.entry, n.timeout)
	if err != nil {
		return n.notFound(ctx, "entry point not clickable", err)
	}

	if err := s.ScrollIntoView(ctx, link); err != nil {
		return n.notFound(ctx, "failed to scroll to entry point", err)
	}
	if err := ratelimit.Sleep(ctx, n.clickPause); err != nil {
		return NotFound, err
	}

	// A script click still lands when the link is partly covered.
	if _, err := s.Execute(ctx, browser.ClickScript, link); err != nil {
		return n.notFound(ctx, "failed to click entry point", err)
	}
	if err := ratelimit.Sleep(ctx, n.settle); err != nil {
		return NotFound, err
	}

	n.logger.Info("entered review listing", "url", s.CurrentURL())
	return Entered, nil
}

func (n *Navigator) notFound(ctx context.Context, msg string, err error) (Outcome, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NotFound, ctxErr
	}
	n.logger.Warn("could not find all reviews link", "reason", msg, "error", err)
	return NotFound, nil
}
