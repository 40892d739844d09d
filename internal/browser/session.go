package browser

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrElementNotFound  = errors.New("element not found")
	ErrTimeout          = errors.New("timed out waiting for element")
	ErrNavigation       = errors.New("navigation failed")
	ErrSessionClosed    = errors.New("session is closed")
	ErrForeignElement   = errors.New("element belongs to another session")
	ErrScriptNotAllowed = errors.New("script not supported by this session")
)

// ClickScript dispatches a click directly on the element argument.
const ClickScript = `el => el.click()`

// Locator addresses elements by CSS selector, optionally narrowed to those
// whose text matches Text.
type Locator struct {
	CSS  string
	Text *regexp.Regexp
}

func CSS(selector string) Locator {
	return Locator{CSS: selector}
}

// WithText narrows the locator to elements whose text matches pattern.
func (l Locator) WithText(pattern string) Locator {
	l.Text = regexp.MustCompile(pattern)
	return l
}

func (l Locator) String() string {
	if l.Text == nil {
		return l.CSS
	}
	return l.CSS + " /" + l.Text.String() + "/"
}

func (l Locator) matchesText(text string) bool {
	return l.Text == nil || l.Text.MatchString(strings.TrimSpace(text))
}

// Scope is anything elements can be searched under: a page or an element.
type Scope interface {
	// FindOne returns the first match or ErrElementNotFound.
	FindOne(loc Locator) (Element, error)
	// FindMany returns all matches in document order. It never fails.
	FindMany(loc Locator) []Element
}

type Element interface {
	Scope
	Text() (string, error)
}

// Session is one exclusively owned browser page.
type Session interface {
	Scope
	// Open navigates to url, waits for the DOM and then for the settle delay.
	Open(ctx context.Context, url string) error
	CurrentURL() string
	// WaitClickable blocks up to timeout for a visible, enabled match.
	WaitClickable(ctx context.Context, loc Locator, timeout time.Duration) (Element, error)
	ScrollIntoView(ctx context.Context, el Element) error
	// Click scrolls el into view, pauses briefly and clicks it.
	Click(ctx context.Context, el Element) error
	// Execute runs script with el as its argument.
	Execute(ctx context.Context, script string, el Element) (any, error)
	// Close releases the session. Calling it again is a no-op.
	Close() error
}

// Opener starts sessions. Each scrape call opens exactly one.
type Opener interface {
	OpenSession(ctx context.Context) (Session, error)
}
