package browser

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if !opts.Headless {
		t.Error("Expected headless to be true by default")
	}

	if opts.Timeout != 30*time.Second {
		t.Errorf("Expected timeout to be 30s, got %v", opts.Timeout)
	}

	if opts.ViewportWidth != 1920 || opts.ViewportHeight != 1080 {
		t.Errorf("Expected viewport to be 1920x1080, got %dx%d", opts.ViewportWidth, opts.ViewportHeight)
	}

	if opts.Locale != "en-IN" {
		t.Errorf("Expected locale to be en-IN, got %s", opts.Locale)
	}

	if opts.NavigationAttempts != 1 {
		t.Errorf("Expected a single navigation attempt, got %d", opts.NavigationAttempts)
	}
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, ".cPHDOP", CSS(".cPHDOP").String())
	assert.Equal(t, "a /All.*reviews/", CSS("a").WithText(`All.*reviews`).String())
}

func TestWaitBudget(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		deadline time.Duration
		wantOK   bool
		wantMax  float64
	}{
		{name: "plain timeout", timeout: 10 * time.Second, wantOK: true, wantMax: 10000},
		{name: "zero timeout", timeout: 0},
		{name: "negative timeout", timeout: -time.Second},
		{name: "sub-millisecond timeout", timeout: 500 * time.Microsecond},
		{name: "deadline caps timeout", timeout: time.Minute, deadline: 2 * time.Second, wantOK: true, wantMax: 2000},
		{name: "nearly expired deadline", timeout: time.Minute, deadline: 200 * time.Microsecond},
		{name: "expired deadline", timeout: time.Minute, deadline: -time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.deadline != 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithDeadline(ctx, time.Now().Add(tt.deadline))
				defer cancel()
			}

			ms, ok := waitBudget(ctx, tt.timeout)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Zero(t, ms)
				return
			}
			assert.Greater(t, ms, 0.0)
			assert.LessOrEqual(t, ms, tt.wantMax)
		})
	}
}

const landingHTML = `<html><body>
<h1 class="title">  Boat Rockerz 450  </h1>
<ul>
  <li class="item">one</li>
  <li class="item">two</li>
  <li class="item">three</li>
</ul>
<a class="link" href="/product-reviews/itm1?pid=P1">All 120 reviews</a>
<a class="link" href="/offers">Offers</a>
<button class="buy" disabled>Buy</button>
</body></html>`

const listingHTML = `<html><body><div class="card"><p class="body">Great sound</p></div></body></html>`

func newStaticSession(t *testing.T) (Session, *httpmock.MockTransport) {
	t.Helper()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://shop.test/p/itm1", htmlResponder(landingHTML))
	transport.RegisterResponder("GET", "https://shop.test/product-reviews/itm1?pid=P1", htmlResponder(listingHTML))
	transport.RegisterResponder("GET", "https://shop.test/missing", httpmock.NewStringResponder(http.StatusNotFound, "gone"))

	client := resty.New()
	client.SetTransport(transport)

	opts := DefaultOptions()
	opts.SettleDelay = 0
	opts.ClickPause = 0

	session, err := NewStatic(client, opts).OpenSession(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return session, transport
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(http.StatusOK, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func TestStaticSessionFind(t *testing.T) {
	ctx := context.Background()
	session, _ := newStaticSession(t)

	_, err := session.FindOne(CSS(".title"))
	assert.ErrorIs(t, err, ErrElementNotFound, "nothing is found before the first navigation")

	require.NoError(t, session.Open(ctx, "https://shop.test/p/itm1"))
	assert.Equal(t, "https://shop.test/p/itm1", session.CurrentURL())

	title, err := session.FindOne(CSS(".title"))
	require.NoError(t, err)
	text, err := title.Text()
	require.NoError(t, err)
	assert.Equal(t, "  Boat Rockerz 450  ", text)

	items := session.FindMany(CSS("li.item"))
	require.Len(t, items, 3)
	last, err := items[2].Text()
	require.NoError(t, err)
	assert.Equal(t, "three", last)

	assert.Empty(t, session.FindMany(CSS(".nope")))

	_, err = session.FindOne(CSS(".nope"))
	assert.ErrorIs(t, err, ErrElementNotFound)

	link, err := session.FindOne(CSS("a.link").WithText(`^Offers$`))
	require.NoError(t, err)
	text, _ = link.Text()
	assert.Equal(t, "Offers", text)
}

func TestStaticSessionNestedScope(t *testing.T) {
	ctx := context.Background()
	session, _ := newStaticSession(t)
	require.NoError(t, session.Open(ctx, "https://shop.test/product-reviews/itm1?pid=P1"))

	card, err := session.FindOne(CSS(".card"))
	require.NoError(t, err)

	body, err := card.FindOne(CSS(".body"))
	require.NoError(t, err)
	text, _ := body.Text()
	assert.Equal(t, "Great sound", text)

	_, err = card.FindOne(CSS(".title"))
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func TestStaticSessionWaitClickable(t *testing.T) {
	ctx := context.Background()
	session, _ := newStaticSession(t)
	require.NoError(t, session.Open(ctx, "https://shop.test/p/itm1"))

	_, err := session.WaitClickable(ctx, CSS("a.link").WithText(`All.*reviews`), time.Second)
	assert.NoError(t, err)

	_, err = session.WaitClickable(ctx, CSS("a.nothing"), time.Second)
	assert.ErrorIs(t, err, ErrTimeout)

	_, err = session.WaitClickable(ctx, CSS("button.buy"), time.Second)
	assert.ErrorIs(t, err, ErrTimeout, "disabled elements are not clickable")
}

func TestStaticSessionScriptClickFollowsLink(t *testing.T) {
	ctx := context.Background()
	session, transport := newStaticSession(t)
	require.NoError(t, session.Open(ctx, "https://shop.test/p/itm1"))

	link, err := session.WaitClickable(ctx, CSS("a.link").WithText(`All.*reviews`), time.Second)
	require.NoError(t, err)
	require.NoError(t, session.ScrollIntoView(ctx, link))

	_, err = session.Execute(ctx, ClickScript, link)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/product-reviews/itm1?pid=P1", session.CurrentURL())
	assert.Len(t, session.FindMany(CSS(".card")), 1)

	info := transport.GetCallCountInfo()
	assert.Equal(t, 1, info["GET https://shop.test/product-reviews/itm1?pid=P1"])

	_, err = session.Execute(ctx, "() => document.title", link)
	assert.ErrorIs(t, err, ErrScriptNotAllowed)
}

func TestStaticSessionNavigationErrors(t *testing.T) {
	ctx := context.Background()
	session, _ := newStaticSession(t)

	err := session.Open(ctx, "https://shop.test/missing")
	assert.ErrorIs(t, err, ErrNavigation)

	err = session.Open(ctx, "https://shop.test/unregistered")
	assert.ErrorIs(t, err, ErrNavigation)
}

func TestStaticSessionClose(t *testing.T) {
	ctx := context.Background()
	session, _ := newStaticSession(t)
	require.NoError(t, session.Open(ctx, "https://shop.test/p/itm1"))

	assert.NoError(t, session.Close())
	assert.NoError(t, session.Close(), "close is idempotent")

	assert.ErrorIs(t, session.Open(ctx, "https://shop.test/p/itm1"), ErrSessionClosed)
	assert.Empty(t, session.FindMany(CSS("li.item")))
}

func TestStaticSessionRejectsForeignElements(t *testing.T) {
	ctx := context.Background()
	first, _ := newStaticSession(t)
	second, _ := newStaticSession(t)
	require.NoError(t, first.Open(ctx, "https://shop.test/p/itm1"))

	link, err := first.FindOne(CSS("a.link"))
	require.NoError(t, err)

	assert.ErrorIs(t, second.Click(ctx, link), ErrForeignElement)
}
