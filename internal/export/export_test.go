package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *models.Result {
	return &models.Result{
		ProductURL: "https://www.flipkart.com/boat-rockerz-450/p/itm1?pid=ACC1",
		Product: models.ProductRecord{
			Title:        models.Value("boAt Rockerz 450"),
			Price:        models.Value("1,499"),
			Rating:       models.Value("4.1"),
			TotalRatings: models.Value("3,21,402 Ratings"),
			TotalReviews: models.Unavailable,
		},
		Reviews: []models.ReviewRecord{
			{Rating: "5", Title: "Superb", Content: "Loud, clear and \"punchy\""},
			{Rating: "3", Title: models.NoTitle, Content: "Average\nbattery"},
		},
		Termination:  models.TerminationEndOfPages,
		PagesFetched: 2,
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "out.json", want: FormatJSON},
		{path: "dir/OUT.CSV", want: FormatCSV},
		{path: "out.txt", wantErr: true},
		{path: "out", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{"boAt Rockerz 450", "1,499", "4.1", "3,21,402 Ratings", "N/A", "5", "Superb", `Loud, clear and "punchy"`}, rows[1])
	assert.Equal(t, "Average\nbattery", rows[2][7])
	assert.Equal(t, models.NoTitle, rows[2][6])
}

func TestWriteCSVNoReviews(t *testing.T) {
	result := sampleResult()
	result.Reviews = nil

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, result))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "reviews.json")
		require.NoError(t, WriteFile(path, sampleResult()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var got models.Result
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, sampleResult().Reviews, got.Reviews)
		assert.False(t, got.Product.TotalReviews.Available())
		assert.Equal(t, models.TerminationEndOfPages, got.Termination)
	})

	t.Run("csv overwrites", func(t *testing.T) {
		path := filepath.Join(dir, "reviews.csv")
		require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))
		require.NoError(t, WriteFile(path, sampleResult()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "stale")
	})

	t.Run("unknown extension writes nothing", func(t *testing.T) {
		path := filepath.Join(dir, "reviews.xml")
		assert.ErrorIs(t, WriteFile(path, sampleResult()), ErrUnknownFormat)
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}
