package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/ratelimit"
	"github.com/playwright-community/playwright-go"
)

// Browser owns one playwright driver and one Chromium process. Sessions
// get their own browser context so cookies never leak between scrapes.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    *Options
	logger  *slog.Logger
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
	ExtraHeaders   map[string]string

	// SettleDelay follows every navigation so client-side rendering can finish.
	SettleDelay time.Duration
	// ClickPause sits between scrolling an element into view and clicking it.
	ClickPause time.Duration
	// NavigationAttempts is the number of tries for one Open call.
	NavigationAttempts int
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "en-IN,en;q=0.9",
		TimezoneID:     "Asia/Kolkata",
		Locale:         "en-IN",
		ExtraHeaders: map[string]string{
			"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		},
		SettleDelay:        2 * time.Second,
		ClickPause:         time.Second,
		NavigationAttempts: 1,
	}
}

func New(opts *Options) (*Browser, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-gpu",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--start-maximized",
		},
	}

	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{
			Server: opts.ProxyServer,
		}
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &Browser{
		pw:      pw,
		browser: browser,
		opts:    opts,
		logger:  slog.Default().With("component", "browser"),
	}, nil
}

// OpenSession creates a fresh context and page.
func (b *Browser) OpenSession(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(b.opts.ExtraHeaders)+1)
	for k, v := range b.opts.ExtraHeaders {
		headers[k] = v
	}
	if b.opts.AcceptLanguage != "" {
		headers["Accept-Language"] = b.opts.AcceptLanguage
	}

	bctx, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         &b.opts.UserAgent,
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            &b.opts.Locale,
		TimezoneId:        &b.opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  b.opts.ViewportWidth,
			Height: b.opts.ViewportHeight,
		},
		ExtraHttpHeaders: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	page.SetDefaultTimeout(float64(b.opts.Timeout.Milliseconds()))

	return &pageSession{
		bctx:   bctx,
		page:   page,
		opts:   b.opts,
		logger: b.logger,
	}, nil
}

func (b *Browser) Close() error {
	var errs []error

	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	return errors.Join(errs...)
}

type pageSession struct {
	bctx   playwright.BrowserContext
	page   playwright.Page
	opts   *Options
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *pageSession) Open(ctx context.Context, url string) error {
	attempts := s.opts.NavigationAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			s.logger.Info("retrying navigation", "attempt", i+1, "url", url)
			if err := ratelimit.Sleep(ctx, time.Duration(i)*time.Second); err != nil {
				return err
			}
		}

		_, err := s.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(s.opts.Timeout.Milliseconds())),
		})
		if err == nil {
			return ratelimit.Sleep(ctx, s.opts.SettleDelay)
		}

		lastErr = err
		s.logger.Error("navigation failed", "error", err, "attempt", i+1, "url", url)
	}

	return fmt.Errorf("%w: %s: %v", ErrNavigation, url, lastErr)
}

func (s *pageSession) CurrentURL() string {
	return s.page.URL()
}

func (s *pageSession) FindOne(loc Locator) (Element, error) {
	return findOne(s.locate, loc, s.opts.Timeout)
}

func (s *pageSession) FindMany(loc Locator) []Element {
	return findMany(s.locate, loc, s.opts.Timeout)
}

func (s *pageSession) locate(selector string) playwright.Locator {
	return s.page.Locator(selector)
}

func (s *pageSession) WaitClickable(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ms, ok := waitBudget(ctx, timeout)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTimeout, loc)
	}

	target := narrow(s.locate(loc.CSS), loc).First()
	err := target.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(ms),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, loc)
		}
		return nil, err
	}

	enabled, err := target.IsEnabled()
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, fmt.Errorf("%w: %s is disabled", ErrTimeout, loc)
	}

	return &pageElement{loc: target, timeout: s.opts.Timeout}, nil
}

// waitBudget converts timeout, capped by ctx's deadline, to playwright
// milliseconds. Playwright reads zero as "wait forever", so anything under
// one millisecond reports false instead.
func waitBudget(ctx context.Context, timeout time.Duration) (float64, bool) {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	ms := timeout.Milliseconds()
	if ms < 1 {
		return 0, false
	}
	return float64(ms), true
}

func (s *pageSession) ScrollIntoView(ctx context.Context, el Element) error {
	pe, ok := el.(*pageElement)
	if !ok {
		return ErrForeignElement
	}
	return pe.loc.ScrollIntoViewIfNeeded()
}

func (s *pageSession) Click(ctx context.Context, el Element) error {
	pe, ok := el.(*pageElement)
	if !ok {
		return ErrForeignElement
	}
	if err := pe.loc.ScrollIntoViewIfNeeded(); err != nil {
		return err
	}
	if err := ratelimit.Sleep(ctx, s.opts.ClickPause); err != nil {
		return err
	}
	return pe.loc.Click()
}

func (s *pageSession) Execute(ctx context.Context, script string, el Element) (any, error) {
	if el == nil {
		return s.page.Evaluate(script)
	}
	pe, ok := el.(*pageElement)
	if !ok {
		return nil, ErrForeignElement
	}
	return pe.loc.Evaluate(script, nil)
}

func (s *pageSession) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close page: %w", err))
		}
		if err := s.bctx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

type pageElement struct {
	loc     playwright.Locator
	timeout time.Duration
}

func (e *pageElement) FindOne(loc Locator) (Element, error) {
	return findOne(e.child, loc, e.timeout)
}

func (e *pageElement) FindMany(loc Locator) []Element {
	return findMany(e.child, loc, e.timeout)
}

func (e *pageElement) child(selector string) playwright.Locator {
	return e.loc.Locator(selector)
}

func (e *pageElement) Text() (string, error) {
	return e.loc.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(float64(e.timeout.Milliseconds())),
	})
}

func narrow(l playwright.Locator, loc Locator) playwright.Locator {
	if loc.Text == nil {
		return l
	}
	return l.Filter(playwright.LocatorFilterOptions{HasText: loc.Text})
}

// findOne counts before reading so a missing element fails fast instead of
// waiting out the locator timeout.
func findOne(locate func(string) playwright.Locator, loc Locator, timeout time.Duration) (Element, error) {
	l := narrow(locate(loc.CSS), loc)
	count, err := l.Count()
	if err != nil || count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return &pageElement{loc: l.First(), timeout: timeout}, nil
}

func findMany(locate func(string) playwright.Locator, loc Locator, timeout time.Duration) []Element {
	all, err := narrow(locate(loc.CSS), loc).All()
	if err != nil {
		return nil
	}
	elements := make([]Element, 0, len(all))
	for _, l := range all {
		elements = append(elements, &pageElement{loc: l, timeout: timeout})
	}
	return elements
}
