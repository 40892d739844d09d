package scraper

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/browser"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/extract"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/metrics"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/models"
)

var errNoPrice = errors.New("no price after currency symbol")

// ProductReader assembles the product summary from the landing page.
type ProductReader struct {
	sel     Selectors
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewProductReader(sel Selectors, logger *slog.Logger, m *metrics.Metrics) *ProductReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductReader{
		sel:     sel,
		logger:  logger.With("component", "product_reader"),
		metrics: m,
	}
}

// Read makes one best-effort pass over the landing page. Each attribute is
// read independently, so a missing price never affects the rating.
func (r *ProductReader) Read(scope browser.Scope) models.ProductRecord {
	counts := extract.ExtractAll(scope, r.sel.RatingsReviews)

	product := models.ProductRecord{
		Title:        extract.Extract(scope, r.sel.Title).NonEmpty(),
		Price:        extract.Clean(extract.Extract(scope, r.sel.Price), splitPrice(r.sel.CurrencySymbol)).NonEmpty(),
		Rating:       extract.Extract(scope, r.sel.Rating).NonEmpty(),
		TotalRatings: extract.At(counts, 0).NonEmpty(),
		TotalReviews: extract.At(counts, 1).NonEmpty(),
	}

	for _, f := range product.Fields() {
		if !f.Field.Available() {
			r.logger.Debug("product field unavailable", "field", f.Name)
			r.metrics.IncUnavailable(f.Name)
		}
	}

	return product
}

// splitPrice keeps the amount after the first currency symbol and prefixes
// the symbol again, dropping list prices and discount text that follow.
func splitPrice(symbol string) extract.Transform {
	return func(text string) (string, error) {
		parts := strings.Split(text, symbol)
		if symbol == "" || len(parts) < 2 {
			return "", errNoPrice
		}
		amount := strings.TrimSpace(parts[1])
		if amount == "" {
			return "", errNoPrice
		}
		return symbol + amount, nil
	}
}
