package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/browser"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/extract"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/metrics"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/models"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/ratelimit"
)

var errNoListingURL = errors.New("listing url is empty")

type phase int

const (
	phaseFetching phase = iota
	phaseExtracting
	phaseAdvancing
	phaseTerminated
)

func (p phase) String() string {
	switch p {
	case phaseFetching:
		return "fetching"
	case phaseExtracting:
		return "extracting"
	case phaseAdvancing:
		return "advancing"
	default:
		return "terminated"
	}
}

// state is one step of the pagination machine. page is the 1-based cursor;
// it only ever grows.
type state struct {
	phase  phase
	page   int
	cards  []browser.Element
	reason models.Termination
}

// Collection is the review output of one pagination run.
type Collection struct {
	Reviews      []models.ReviewRecord
	Termination  models.Termination
	PagesFetched int
}

// Collector walks paginated review listings until a terminal reason fires.
type Collector struct {
	sel      Selectors
	interval time.Duration
	maxPages int
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewCollector(opts Options, logger *slog.Logger, m *metrics.Metrics) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		sel:      opts.Selectors,
		interval: opts.PageInterval,
		maxPages: opts.MaxPages,
		logger:   logger.With("component", "collector"),
		metrics:  m,
	}
}

// run holds everything scoped to one Collect call.
type run struct {
	session browser.Session
	base    string
	summary models.Field
	seen    *SeenKeys
	out     *Collection
}

// Collect paginates from the session's current listing URL. summary is the
// product's overall rating; cards carrying exactly that rating are treated
// as the summary row, not as reviews. A failed listing fetch ends the run
// with the reviews gathered so far. The only error is ctx's.
func (c *Collector) Collect(ctx context.Context, s browser.Session, summary models.Field) (*Collection, error) {
	r := &run{
		session: s,
		base:    s.CurrentURL(),
		summary: summary,
		seen:    NewSeenKeys(),
		out:     &Collection{Reviews: []models.ReviewRecord{}},
	}

	st := state{phase: phaseFetching, page: 1}
	for st.phase != phaseTerminated {
		c.logger.Debug("collector step", "phase", st.phase, "page", st.page)

		var err error
		switch st.phase {
		case phaseFetching:
			st, err = c.fetch(ctx, r, st)
		case phaseExtracting:
			st = c.extract(r, st)
		case phaseAdvancing:
			st, err = c.advance(ctx, st)
		}
		if err != nil {
			return r.out, err
		}
	}

	r.out.Termination = st.reason
	c.metrics.IncTermination(string(st.reason))
	c.logger.Info("pagination finished",
		"reason", st.reason,
		"pages", r.out.PagesFetched,
		"reviews", len(r.out.Reviews))

	return r.out, nil
}

func (c *Collector) fetch(ctx context.Context, r *run, st state) (state, error) {
	if c.maxPages > 0 && st.page > c.maxPages {
		return terminate(st, models.TerminationMaxPages), nil
	}

	pageURL, err := PageURL(r.base, c.sel.PageParam, st.page)
	if err != nil {
		c.logger.Warn("cannot build listing url", "base", r.base, "error", err)
		return terminate(st, models.TerminationFetchFailed), nil
	}

	c.logger.Info("scraping page", "page", st.page, "url", pageURL)
	if err := r.session.Open(ctx, pageURL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return st, ctxErr
		}
		c.metrics.IncPage("failed")
		c.logger.Warn("listing page failed to load", "page", st.page, "error", err)
		return terminate(st, models.TerminationFetchFailed), nil
	}
	r.out.PagesFetched++

	cards := r.session.FindMany(c.sel.Card)
	if len(cards) == 0 {
		c.metrics.IncPage("empty")
		return terminate(st, models.TerminationEndOfPages), nil
	}
	c.metrics.IncPage("ok")

	st.phase = phaseExtracting
	st.cards = cards
	return st, nil
}

func (c *Collector) extract(r *run, st state) state {
	newFound := false
	for i, card := range st.cards {
		review, skip := c.readCard(card, r.summary)
		if skip != "" {
			c.metrics.IncSkipped(skip)
			c.logger.Debug("skipping card", "page", st.page, "card", i, "reason", skip)
			continue
		}

		if !r.seen.Add(review.Key()) {
			c.metrics.IncSkipped("duplicate")
			continue
		}
		r.out.Reviews = append(r.out.Reviews, review)
		c.metrics.IncAccepted()
		newFound = true
	}
	st.cards = nil

	if !newFound {
		return terminate(st, models.TerminationNoNewContent)
	}
	st.phase = phaseAdvancing
	return st
}

func (c *Collector) advance(ctx context.Context, st state) (state, error) {
	if err := ratelimit.Sleep(ctx, c.interval); err != nil {
		return st, err
	}
	st.page++
	st.phase = phaseFetching
	return st, nil
}

// readCard returns the review on card, or the reason it was skipped.
func (c *Collector) readCard(card browser.Element, summary models.Field) (models.ReviewRecord, string) {
	rating := extract.Extract(card, c.sel.CardRating).NonEmpty()
	if !rating.Available() {
		return models.ReviewRecord{}, "unreadable_rating"
	}
	if summary.Available() && rating.Equal(summary) {
		return models.ReviewRecord{}, "summary_row"
	}

	content := extract.Clean(extract.Extract(card, c.sel.CardContent), extract.Remove(c.sel.ReadMoreMarker))

	return models.ReviewRecord{
		Rating:  rating.String(),
		Title:   extract.Extract(card, c.sel.CardTitle).Or(models.NoTitle),
		Content: content.Or(models.UnavailableText),
	}, ""
}

func terminate(st state, reason models.Termination) state {
	st.phase = phaseTerminated
	st.reason = reason
	st.cards = nil
	return st
}

// PageURL returns base with its pagination parameter set to page.
func PageURL(base, param string, page int) (string, error) {
	if base == "" {
		return "", errNoListingURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url: %w", err)
	}
	if param == "" {
		param = "page"
	}
	q := u.Query()
	q.Set(param, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
