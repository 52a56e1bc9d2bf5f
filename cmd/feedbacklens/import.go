package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/FeedbackLens/internal/ingest"
	"github.com/TobiSchelling/FeedbackLens/internal/logger"
)

// --- import command ---

var importSheet string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import customer feedback",
}

var importCSVCmd = &cobra.Command{
	Use:   "csv [file]",
	Short: "Import feedback from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := ingest.ImportCSV(db, args[0])
		if err != nil {
			return err
		}
		printImport("csv", res)
		return nil
	},
}

var importXLSXCmd = &cobra.Command{
	Use:   "xlsx [file]",
	Short: "Import feedback from an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := ingest.ImportXLSX(db, args[0], importSheet)
		if err != nil {
			return err
		}
		printImport("xlsx", res)
		return nil
	},
}

var importFeedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Import reviews from the configured RSS/Atom feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Sources.Feeds) == 0 {
			fmt.Println("No feeds configured. Add them under sources.feeds in the config file.")
			return nil
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := newFeedImporter().Import(cmd.Context(), db)
		if err != nil {
			return err
		}
		printImport("feeds", res)
		return nil
	},
}

func init() {
	importXLSXCmd.Flags().StringVar(&importSheet, "sheet", "", "Worksheet name (default: first sheet)")

	importCmd.AddCommand(importCSVCmd)
	importCmd.AddCommand(importXLSXCmd)
	importCmd.AddCommand(importFeedsCmd)
}

func newFeedImporter() *ingest.FeedImporter {
	feeds := make([]ingest.FeedSource, 0, len(cfg.Sources.Feeds))
	for _, f := range cfg.Sources.Feeds {
		feeds = append(feeds, ingest.FeedSource{URL: f.URL, Name: f.Name, ProductID: f.ProductID})
	}
	return ingest.NewFeedImporter(
		feeds,
		ingest.NewPageFetcher(cfg.Sources.FetchTimeout),
		cfg.Sources.MaxPerFeed,
		log.With(logger.String("component", "feeds")),
	)
}

func printImport(source string, res *ingest.Result) {
	log.Info("Import complete",
		logger.String("source", source),
		logger.Int("read", res.Read),
		logger.Int("inserted", res.Inserted),
		logger.Int("duplicates", res.Duplicates),
		logger.Int("invalid", len(res.Invalid)),
	)

	fmt.Println("\nImport complete:")
	fmt.Printf("  Rows read: %d\n", res.Read)
	fmt.Printf("  New feedback: %d\n", res.Inserted)
	fmt.Printf("  Duplicates skipped: %d\n", res.Duplicates)
	if len(res.Invalid) > 0 {
		fmt.Printf("  Invalid rows: %d\n", len(res.Invalid))
		for _, re := range res.Invalid {
			fmt.Printf("    row %d: %s\n", re.Row, re.Error)
		}
	}
}
