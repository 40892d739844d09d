package browser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/ratelimit"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// Static serves sessions over plain HTTP. Pages are parsed once per
// navigation and never executed, so it only suits server-rendered markup
// or recorded fixtures. Clicks follow the element's href.
type Static struct {
	client *resty.Client
	opts   *Options
	logger *slog.Logger
}

func NewStatic(client *resty.Client, opts *Options) *Static {
	if client == nil {
		client = resty.New()
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	client.SetTimeout(opts.Timeout)
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.AcceptLanguage != "" {
		client.SetHeader("Accept-Language", opts.AcceptLanguage)
	}
	client.SetHeaders(opts.ExtraHeaders)

	return &Static{
		client: client,
		opts:   opts,
		logger: slog.Default().With("component", "static_browser"),
	}
}

func (s *Static) OpenSession(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &staticSession{client: s.client, opts: s.opts, logger: s.logger}, nil
}

type staticSession struct {
	client *resty.Client
	opts   *Options
	logger *slog.Logger

	current string
	doc     *goquery.Document
	closed  bool
}

func (s *staticSession) Open(ctx context.Context, rawURL string) error {
	if s.closed {
		return ErrSessionClosed
	}

	resp, err := s.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", ErrNavigation, rawURL, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s: status %d", ErrNavigation, rawURL, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return fmt.Errorf("%w: %s: failed to parse HTML: %v", ErrNavigation, rawURL, err)
	}

	s.doc = doc
	s.current = rawURL
	s.logger.Debug("loaded page", "url", rawURL, "bytes", len(resp.Body()))

	return ratelimit.Sleep(ctx, s.opts.SettleDelay)
}

func (s *staticSession) CurrentURL() string {
	return s.current
}

func (s *staticSession) FindOne(loc Locator) (Element, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return findOneIn(s, s.doc.Selection, loc)
}

func (s *staticSession) FindMany(loc Locator) []Element {
	if s.doc == nil {
		return nil
	}
	return findManyIn(s, s.doc.Selection, loc)
}

// WaitClickable cannot wait for rendering, so absence is an immediate timeout.
func (s *staticSession) WaitClickable(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el, err := s.FindOne(loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTimeout, loc)
	}
	if _, disabled := el.(*staticElement).sel.Attr("disabled"); disabled {
		return nil, fmt.Errorf("%w: %s is disabled", ErrTimeout, loc)
	}
	return el, nil
}

func (s *staticSession) ScrollIntoView(ctx context.Context, el Element) error {
	_, err := s.own(el)
	return err
}

func (s *staticSession) Click(ctx context.Context, el Element) error {
	se, err := s.own(el)
	if err != nil {
		return err
	}
	if err := ratelimit.Sleep(ctx, s.opts.ClickPause); err != nil {
		return err
	}
	return s.follow(ctx, se)
}

func (s *staticSession) Execute(ctx context.Context, script string, el Element) (any, error) {
	if script != ClickScript {
		return nil, ErrScriptNotAllowed
	}
	se, err := s.own(el)
	if err != nil {
		return nil, err
	}
	return nil, s.follow(ctx, se)
}

func (s *staticSession) Close() error {
	s.closed = true
	s.doc = nil
	return nil
}

func (s *staticSession) own(el Element) (*staticElement, error) {
	se, ok := el.(*staticElement)
	if !ok || se.session != s {
		return nil, ErrForeignElement
	}
	return se, nil
}

// follow navigates to the element's link target. Elements without an href
// are clicked without effect.
func (s *staticSession) follow(ctx context.Context, el *staticElement) error {
	href, ok := el.sel.Attr("href")
	if !ok || href == "" {
		return nil
	}

	base, err := url.Parse(s.current)
	if err != nil {
		return fmt.Errorf("%w: invalid current url %q: %v", ErrNavigation, s.current, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("%w: invalid href %q: %v", ErrNavigation, href, err)
	}

	return s.Open(ctx, base.ResolveReference(ref).String())
}

type staticElement struct {
	session *staticSession
	sel     *goquery.Selection
}

func (e *staticElement) FindOne(loc Locator) (Element, error) {
	return findOneIn(e.session, e.sel, loc)
}

func (e *staticElement) FindMany(loc Locator) []Element {
	return findManyIn(e.session, e.sel, loc)
}

func (e *staticElement) Text() (string, error) {
	return e.sel.Text(), nil
}

func matchIn(root *goquery.Selection, loc Locator) *goquery.Selection {
	return root.Find(loc.CSS).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return loc.matchesText(sel.Text())
	})
}

func findOneIn(s *staticSession, root *goquery.Selection, loc Locator) (Element, error) {
	sel := matchIn(root, loc)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return &staticElement{session: s, sel: sel.First()}, nil
}

func findManyIn(s *staticSession, root *goquery.Selection, loc Locator) []Element {
	sel := matchIn(root, loc)
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, item *goquery.Selection) {
		elements = append(elements, &staticElement{session: s, sel: item})
	})
	return elements
}
