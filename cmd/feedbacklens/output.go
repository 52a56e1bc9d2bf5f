package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/FeedbackLens/internal/classifier"
	"github.com/TobiSchelling/FeedbackLens/internal/detect"
	"github.com/TobiSchelling/FeedbackLens/internal/export"
	"github.com/TobiSchelling/FeedbackLens/internal/logger"
	"github.com/TobiSchelling/FeedbackLens/internal/report"
	"github.com/TobiSchelling/FeedbackLens/internal/sentiment"
	"github.com/TobiSchelling/FeedbackLens/internal/server"
	"github.com/TobiSchelling/FeedbackLens/internal/telemetry"
	"github.com/TobiSchelling/FeedbackLens/internal/textnorm"
)

// --- report command ---

var (
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the sentiment, issue, and feature request summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		summary, err := report.NewGenerator(db, log.With(logger.String("component", "report"))).Generate()
		if err != nil {
			return err
		}

		if reportOutput == "" {
			return summary.Write(os.Stdout, reportFormat)
		}
		f, err := os.Create(reportOutput)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		if err := summary.Write(f, reportFormat); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing report file: %w", err)
		}
		fmt.Printf("Report written to %s\n", reportOutput)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", report.FormatText,
		"Output format: "+strings.Join(report.Formats, ", "))
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write the report to a file instead of stdout")
}

// --- export command ---

var (
	exportDir  string
	exportXLSX bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the dashboard views as CSV (and optionally one XLSX workbook)",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		dir := exportDir
		if dir == "" {
			dir = cfg.ExportDir()
		}

		ex := export.New(db)
		res, err := ex.CSV(dir)
		if err != nil {
			return err
		}
		if exportXLSX || cfg.Export.XLSX {
			xres, err := ex.XLSX(filepath.Join(dir, "feedback_dashboard.xlsx"))
			if err != nil {
				return err
			}
			res.Files = append(res.Files, xres.Files...)
		}

		fmt.Println("Export complete:")
		for _, f := range res.Files {
			fmt.Printf("  %s\n", f)
		}
		for view, n := range res.Rows {
			log.Debug("Exported view", logger.String("view", view), logger.Int("rows", n))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", "", "Output directory (default: <data dir>/exports)")
	exportCmd.Flags().BoolVar(&exportXLSX, "xlsx", false, "Also write a single XLSX workbook")
}

// --- analyze command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Score one piece of text without storing it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, err := sentiment.Default()
		if err != nil {
			return fmt.Errorf("loading sentiment lexicons: %w", err)
		}

		raw := strings.Join(args, " ")
		cleaned := textnorm.Clean(raw)
		if cleaned == "" {
			return fmt.Errorf("text is empty after normalization")
		}

		a := analyzer.Analyze(cleaned)
		fmt.Printf("Text: %s\n\n", cleaned)
		fmt.Printf("  Lexicon:  %-8s confidence %.2f  score %.2f\n",
			a.Primary.Label, sentiment.Round2(a.Primary.Confidence), sentiment.Round2(a.Primary.Score))
		fmt.Printf("  Polarity: %-8s confidence %.2f  score %.2f\n",
			a.Secondary.Label, sentiment.Round2(a.Secondary.Confidence), sentiment.Round2(a.Secondary.Score))

		if cfg.Classifier.URL != "" {
			client := classifier.NewClient(cfg.Classifier.URL, cfg.Classifier.Timeout)
			dist, err := client.Classify(cmd.Context(), raw)
			if err != nil {
				log.Warn("Classifier unavailable", logger.Error(err))
			} else {
				v := dist.Verdict()
				fmt.Printf("  Model:    %-8s confidence %.2f  score %.2f\n",
					v.Label, sentiment.Round2(v.Confidence), sentiment.Round2(v.Score))
			}
		}

		issues := detect.Issues(cleaned, 0)
		if len(issues) > 0 {
			fmt.Println("\nIssues:")
			for _, is := range issues {
				fmt.Printf("  %s (%s)\n", is.Category, is.Severity)
			}
		}
		if reqs := detect.FeatureRequests(cleaned, 0); len(reqs) > 0 {
			fmt.Println("\nFeature request:")
			for _, fr := range reqs {
				fmt.Printf("  %s (priority %s)\n", fr.FeatureName, fr.Priority)
			}
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard and analysis API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		analyzer, err := sentiment.Default()
		if err != nil {
			return fmt.Errorf("loading sentiment lexicons: %w", err)
		}

		opts := server.Options{
			Metrics: telemetry.New(),
			Logger:  log.With(logger.String("component", "server")),
		}
		if cfg.Classifier.URL != "" {
			opts.Classifier = classifier.NewClient(cfg.Classifier.URL, cfg.Classifier.Timeout)
		}

		srv, err := server.New(db, analyzer, opts)
		if err != nil {
			return err
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		addr := server.Addr(cfg.Server.Host, port)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://%s\n", addr)
		fmt.Println("Press Ctrl+C to stop")
		return srv.Serve(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 5000, "Port to run server on")
}
