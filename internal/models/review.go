package models

import "strconv"

// ReviewRecord is one accepted review card.
type ReviewRecord struct {
	Rating  string `json:"rating"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Key derives the review's identity from its content. Distinct reviews
// with identical rating, title and content share a key.
func (r ReviewRecord) Key() string {
	return r.Rating + r.Title + r.Content
}

// Stars parses the rating as a star value. It returns 0 when the rating
// text is not a small positive integer.
func (r ReviewRecord) Stars() int {
	n, err := strconv.Atoi(r.Rating)
	if err != nil || n < 1 || n > 5 {
		return 0
	}
	return n
}

// Termination names the reason pagination stopped.
type Termination string

const (
	TerminationNone         Termination = ""
	TerminationEndOfPages   Termination = "end_of_pages"
	TerminationNoNewContent Termination = "no_new_content"
	TerminationMaxPages     Termination = "max_pages"
	TerminationFetchFailed  Termination = "fetch_failed"
	// TerminationNoListing means the "all reviews" entry point was never found.
	TerminationNoListing Termination = "no_listing"
)

// Result is the output of one scrape call.
type Result struct {
	ProductURL   string         `json:"product_url"`
	Product      ProductRecord  `json:"product"`
	Reviews      []ReviewRecord `json:"reviews"`
	Termination  Termination    `json:"termination"`
	PagesFetched int            `json:"pages_fetched"`
}
