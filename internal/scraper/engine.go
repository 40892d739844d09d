package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/browser"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/metrics"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/models"
)

// Engine runs complete scrapes: product summary, listing entry and
// pagination, all inside one exclusively owned session.
type Engine struct {
	opener    browser.Opener
	reader    *ProductReader
	navigator *Navigator
	collector *Collector
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewEngine(opener browser.Opener, opts Options, logger *slog.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		opener:    opener,
		reader:    NewProductReader(opts.Selectors, logger, m),
		navigator: NewNavigator(opts, logger),
		collector: NewCollector(opts, logger, m),
		logger:    logger.With("component", "engine"),
		metrics:   m,
	}
}

// Scrape reads the product at productURL and all of its reviews. Missing
// fields, a missing review listing and an early end of pages are ordinary
// outcomes recorded in the result. It fails only when no session can be
// opened, the landing page never loads, or ctx is done.
func (e *Engine) Scrape(ctx context.Context, productURL string) (result *models.Result, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "failed"
		}
		e.metrics.ObserveScrape(time.Since(start), status)
	}()

	if err := ValidateURL(productURL); err != nil {
		return nil, err
	}

	session, err := e.opener.OpenSession(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			e.logger.Error("failed to close session", "error", closeErr)
		}
	}()

	e.logger.Info("scraping product", "url", productURL)
	if err := session.Open(ctx, productURL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrInitialNavigation, err)
	}

	result = &models.Result{
		ProductURL: productURL,
		Product:    e.reader.Read(session),
		Reviews:    []models.ReviewRecord{},
	}

	outcome, err := e.navigator.Activate(ctx, session)
	if err != nil {
		return nil, err
	}
	if outcome == NotFound {
		result.Termination = models.TerminationNoListing
		e.metrics.IncTermination(string(result.Termination))
		return result, nil
	}

	collection, err := e.collector.Collect(ctx, session, result.Product.Rating)
	if err != nil {
		return nil, err
	}

	result.Reviews = collection.Reviews
	result.Termination = collection.Termination
	result.PagesFetched = collection.PagesFetched

	e.logger.Info("scrape complete",
		"url", productURL,
		"reviews", len(result.Reviews),
		"pages", result.PagesFetched,
		"termination", result.Termination,
		"duration", time.Since(start))

	return result, nil
}

// ValidateURL accepts absolute http and https URLs.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	return nil
}

// IsFatal reports whether err means the scrape produced no result at all,
// as opposed to cancellation.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSessionUnavailable) ||
		errors.Is(err, ErrInitialNavigation) ||
		errors.Is(err, ErrInvalidURL)
}
