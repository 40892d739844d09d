// Package export writes scrape results to local files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/models"
)

var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// CSVHeader lists the columns of a CSV export. Product columns repeat on
// every row.
var CSVHeader = []string{
	"product_title", "product_price", "product_rating", "product_total_ratings", "product_total_reviews",
	"rating", "title", "content",
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// WriteFile writes result to path in the format implied by its extension.
// The file is written to a temporary sibling first and renamed into place,
// so readers never observe a partial export.
func WriteFile(path string, result *models.Result) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Write(tmp, format, result); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}

func Write(w io.Writer, format Format, result *models.Result) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, result)
	case FormatCSV:
		return WriteCSV(w, result)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func WriteJSON(w io.Writer, result *models.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// WriteCSV writes one row per review in acceptance order.
func WriteCSV(w io.Writer, result *models.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	p := result.Product
	product := []string{p.Title.String(), p.Price.String(), p.Rating.String(), p.TotalRatings.String(), p.TotalReviews.String()}

	for i, r := range result.Reviews {
		row := append(append(make([]string, 0, len(CSVHeader)), product...), r.Rating, r.Title, r.Content)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write review %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
