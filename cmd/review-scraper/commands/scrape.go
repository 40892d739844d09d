package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/export"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/models"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/scraper"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeOut      string
	scrapeStatic   bool
	scrapeMaxPages int
)

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeOut, "out", "o", "", "Write the dataset to a .json or .csv file.")
	scrapeCmd.Flags().BoolVar(&scrapeStatic, "static", false, "Fetch pages over plain HTTP instead of driving Chromium.")
	scrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 0, "Stop after this many listing pages (0 for no cap).")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <product-url> [--out <file.json|file.csv>] [--static]",
	Short: "Scrapes one product page and its reviews.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if scrapeOut != "" {
			if _, err := export.FormatFromPath(scrapeOut); err != nil {
				return err
			}
		}

		cfg, log, err := setup()
		if err != nil {
			return err
		}

		sc := cfg.Scraper
		if cmd.Flags().Changed("max-pages") {
			sc.MaxPages = scrapeMaxPages
		}

		src, err := newOpener(scrapeStatic, browserOptions(cfg.Browser, sc))
		if err != nil {
			return fmt.Errorf("failed to initialize browser: %w", err)
		}
		defer src.Close()

		engine := scraper.NewEngine(src, scraperOptions(sc), log, nil)

		result, err := engine.Scrape(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		renderSummary(cmd.OutOrStdout(), result)

		if scrapeOut != "" {
			if err := export.WriteFile(scrapeOut, result); err != nil {
				return err
			}
			log.Info("dataset written", "path", scrapeOut, "reviews", len(result.Reviews))
		}

		return nil
	},
}

func renderSummary(w io.Writer, result *models.Result) {
	product := newTable(w)
	product.SetTitle("Product")
	product.AppendHeader(table.Row{"Field", "Value"})
	for _, f := range result.Product.Fields() {
		product.AppendRow(table.Row{f.Name, f.Field.String()})
	}
	product.Render()

	reviews := newTable(w)
	reviews.SetTitle("Reviews")
	reviews.AppendHeader(table.Row{"Rating", "Count"})
	counts := starCounts(result.Reviews)
	for _, stars := range sortedKeys(counts) {
		label := fmt.Sprintf("%d★", stars)
		if stars == 0 {
			label = "other"
		}
		reviews.AppendRow(table.Row{label, counts[stars]})
	}
	reviews.AppendFooter(table.Row{"Total", len(result.Reviews)})
	reviews.Render()

	fmt.Fprintf(w, "pages fetched: %d, stopped: %s\n", result.PagesFetched, result.Termination)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	if w == nil {
		w = os.Stdout
	}
	t.SetOutputMirror(w)
	return t
}

func starCounts(reviews []models.ReviewRecord) map[int]int {
	counts := make(map[int]int)
	for _, r := range reviews {
		counts[r.Stars()]++
	}
	return counts
}

// sortedKeys orders star values from highest to lowest.
func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))
	return keys
}
