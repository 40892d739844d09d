package scraper

import "github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/browser"

// Selectors describes where each value lives in the page markup.
type Selectors struct {
	// Landing page.
	Title          browser.Locator
	Price          browser.Locator
	Rating         browser.Locator
	RatingsReviews browser.Locator
	AllReviews     browser.Locator

	// Listing pages.
	Card        browser.Locator
	CardRating  browser.Locator
	CardTitle   browser.Locator
	CardContent browser.Locator

	CurrencySymbol string
	ReadMoreMarker string
	PageParam      string
}

// DefaultSelectors targets Flipkart product and review listing pages.
func DefaultSelectors() Selectors {
	return Selectors{
		Title:          browser.CSS(".VU-ZEz"),
		Price:          browser.CSS(".UOCQB1"),
		Rating:         browser.CSS(".XQDdHH"),
		RatingsReviews: browser.CSS(".j-aW8Z"),
		AllReviews:     browser.CSS("a:has(div._23J90q)").WithText(`All.*reviews`),

		Card:        browser.CSS(".cPHDOP"),
		CardRating:  browser.CSS(".XQDdHH"),
		CardTitle:   browser.CSS(".z9E0IG"),
		CardContent: browser.CSS(".ZmyHeo"),

		CurrencySymbol: "₹",
		ReadMoreMarker: "READ MORE",
		PageParam:      "page",
	}
}
