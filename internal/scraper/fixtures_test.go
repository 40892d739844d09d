package scraper

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/browser"
	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

const (
	productURL = "https://www.flipkart.com/boat-rockerz-450/p/itm1?pid=ACC1"
	listingURL = "https://www.flipkart.com/boat-rockerz-450/product-reviews/itm1?lid=LST1&pid=ACC1"
)

type product struct {
	title, price, rating string
	counts               []string
	link                 bool
}

func defaultProduct() product {
	return product{
		title:  "boAt Rockerz 450 Bluetooth Headset",
		price:  "₹1,499₹3,99062% off",
		rating: "4.1",
		counts: []string{"4,12,345 Ratings", "25,012 Reviews"},
		link:   true,
	}
}

func landingPage(p product) string {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	if p.title != "" {
		fmt.Fprintf(&b, `<h1><span class="VU-ZEz"> %s </span></h1>`+"\n", html.EscapeString(p.title))
	}
	if p.price != "" {
		fmt.Fprintf(&b, `<div class="UOCQB1">%s</div>`+"\n", html.EscapeString(p.price))
	}
	if p.rating != "" {
		fmt.Fprintf(&b, `<div class="XQDdHH">%s</div>`+"\n", p.rating)
	}
	for _, c := range p.counts {
		fmt.Fprintf(&b, `<span class="j-aW8Z">%s</span>`+"\n", c)
	}
	if p.link {
		b.WriteString(`<a href="/boat-rockerz-450/product-reviews/itm1?lid=LST1&amp;pid=ACC1"><div class="_23J90q"><span>All 25012 reviews</span></div></a>` + "\n")
	}
	b.WriteString("</body></html>")
	return b.String()
}

// card is one review card. Empty rating omits the rating element.
type card struct {
	rating, title, content string
}

func listingPage(cards ...card) string {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	for _, c := range cards {
		b.WriteString(`<div class="cPHDOP">`)
		if c.rating != "" {
			fmt.Fprintf(&b, `<div class="XQDdHH">%s</div>`, c.rating)
		}
		if c.title != "" {
			fmt.Fprintf(&b, `<p class="z9E0IG">%s</p>`, html.EscapeString(c.title))
		}
		if c.content != "" {
			fmt.Fprintf(&b, `<div class="ZmyHeo"><div>%s</div><span>READ MORE</span></div>`, html.EscapeString(c.content))
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("</body></html>")
	return b.String()
}

// distinctCards returns n cards unique to the given page.
func distinctCards(page, n int) []card {
	cards := make([]card, n)
	for i := range cards {
		cards[i] = card{
			rating:  fmt.Sprint(i%5 + 1),
			title:   fmt.Sprintf("Review %d.%d", page, i),
			content: fmt.Sprintf("Body of review %d on page %d.", i, page),
		}
	}
	return cards
}

func pageURL(t *testing.T, n int) string {
	t.Helper()
	u, err := PageURL(listingURL, "page", n)
	require.NoError(t, err)
	return u
}

type site struct {
	t         *testing.T
	transport *httpmock.MockTransport
	opener    *trackingOpener
}

// newSite serves p as the landing page and pages[i] as listing page i+1.
// Any page past the end is served with no cards.
func newSite(t *testing.T, p product, pages ...[]card) *site {
	t.Helper()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, productURL, htmlResponder(landingPage(p)))
	transport.RegisterResponder(http.MethodGet, listingURL, htmlResponder(listingPage()))
	for i, cards := range pages {
		transport.RegisterResponder(http.MethodGet, pageURL(t, i+1), htmlResponder(listingPage(cards...)))
	}
	for i := len(pages) + 1; i <= len(pages)+3; i++ {
		transport.RegisterResponder(http.MethodGet, pageURL(t, i), htmlResponder(listingPage()))
	}

	client := resty.New()
	client.SetTransport(transport)

	opts := browser.DefaultOptions()
	opts.SettleDelay = 0
	opts.ClickPause = 0

	return &site{
		t:         t,
		transport: transport,
		opener:    &trackingOpener{Opener: browser.NewStatic(client, opts)},
	}
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(http.StatusOK, body)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	return httpmock.ResponderFromResponse(resp)
}

// fetches reports how often listing page n was requested.
func (s *site) fetches(n int) int {
	return s.transport.GetCallCountInfo()["GET "+pageURL(s.t, n)]
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.EntryTimeout = 0
	opts.ClickPause = 0
	opts.ListingSettle = 0
	opts.PageInterval = 0
	return opts
}

func (s *site) engine(opts Options) *Engine {
	return NewEngine(s.opener, opts, nil, nil)
}

// trackingOpener records how many of its sessions were closed.
type trackingOpener struct {
	browser.Opener

	mu     sync.Mutex
	opened int
	closed int
}

func (o *trackingOpener) OpenSession(ctx context.Context) (browser.Session, error) {
	s, err := o.Opener.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.opened++
	o.mu.Unlock()
	return &trackingSession{Session: s, opener: o}, nil
}

func (o *trackingOpener) counts() (opened, closed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opened, o.closed
}

type trackingSession struct {
	browser.Session
	opener *trackingOpener
	once   sync.Once
}

func (s *trackingSession) Close() error {
	s.once.Do(func() {
		s.opener.mu.Lock()
		s.opener.closed++
		s.opener.mu.Unlock()
	})
	return s.Session.Close()
}
