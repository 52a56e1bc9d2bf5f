package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/FeedbackLens/internal/coordination"
	"github.com/TobiSchelling/FeedbackLens/internal/database"
	"github.com/TobiSchelling/FeedbackLens/internal/logger"
	"github.com/TobiSchelling/FeedbackLens/internal/processor"
	"github.com/TobiSchelling/FeedbackLens/internal/scheduler"
	"github.com/TobiSchelling/FeedbackLens/internal/sentiment"
	"github.com/TobiSchelling/FeedbackLens/internal/telemetry"
)

// --- process command ---

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Analyze all feedback that has no sentiment result yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		proc, closeLock, err := newProcessor(db, nil)
		if err != nil {
			return err
		}
		defer closeLock()

		result := proc.Run(cmd.Context())
		printRun(result)
		return nil
	},
}

// --- schedule command ---

var (
	scheduleImportFeeds bool
	scheduleMetricsAddr string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Process feedback on the configured interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		metrics := telemetry.New()
		proc, closeLock, err := newProcessor(db, metrics)
		if err != nil {
			return err
		}
		defer closeLock()

		if scheduleMetricsAddr != "" {
			srv := &http.Server{Addr: scheduleMetricsAddr, Handler: metrics.Handler()}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Metrics listener failed", logger.Error(err))
				}
			}()
			defer srv.Close()
			log.Info("Serving metrics", logger.String("addr", scheduleMetricsAddr))
		}

		runner := &cycle{db: db, proc: proc, metrics: metrics, importFeeds: scheduleImportFeeds}
		sched := scheduler.New(runner, cfg.Scheduler.Interval, cfg.Scheduler.RetryDelay,
			log.With(logger.String("component", "scheduler")))

		fmt.Println("Scheduler running. Press Ctrl+C to stop.")
		runs := sched.Run(ctx)
		fmt.Printf("Scheduler stopped after %d run(s).\n", runs)
		return nil
	},
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleImportFeeds, "import-feeds", false, "Import the configured feeds before every run")
	scheduleCmd.Flags().StringVar(&scheduleMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}

// cycle is one scheduled iteration: an optional feed import followed by a
// processing run. Import failures are logged and do not block processing.
type cycle struct {
	db          *database.DB
	proc        *processor.Processor
	metrics     *telemetry.Metrics
	importFeeds bool
}

func (c *cycle) Run(ctx context.Context) *processor.Result {
	if c.importFeeds && len(cfg.Sources.Feeds) > 0 {
		res, err := newFeedImporter().Import(ctx, c.db)
		if err != nil {
			log.Error("Feed import failed", logger.Error(err))
		} else {
			c.metrics.RecordImported("feeds", res.Inserted)
			log.Info("Feed import complete",
				logger.Int("inserted", res.Inserted),
				logger.Int("duplicates", res.Duplicates),
			)
		}
	}
	return c.proc.Run(ctx)
}

// newProcessor wires the processor to the database, the embedded analyzer,
// and the Redis run lock when one is configured. The returned function
// closes the Redis client.
func newProcessor(db *database.DB, metrics *telemetry.Metrics) (*processor.Processor, func(), error) {
	analyzer, err := sentiment.Default()
	if err != nil {
		return nil, nil, fmt.Errorf("loading sentiment lexicons: %w", err)
	}

	opts := processor.Options{
		MarkSkipped: cfg.Processing.MarkEmptySkipped,
		Metrics:     metrics,
		Logger:      log.With(logger.String("component", "processor")),
	}

	closeFn := func() {}
	if cfg.Lock.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Lock.RedisAddr,
			Password: cfg.Lock.RedisPassword(),
			DB:       cfg.Lock.RedisDB,
		})
		lock := coordination.NewRunLock(client, cfg.Lock.Key, cfg.Lock.TTL)
		opts.Locker = lock
		opts.LockRefresh = lock.TTL() / 3
		closeFn = func() {
			if err := client.Close(); err != nil {
				log.Warn("Closing redis client failed", logger.Error(err))
			}
		}
		log.Debug("Run lock enabled",
			logger.String("addr", cfg.Lock.RedisAddr),
			logger.String("key", cfg.Lock.Key),
		)
	}

	return processor.New(db, analyzer, opts), closeFn, nil
}

func printRun(r *processor.Result) {
	fmt.Printf("Run %s\n", r.RunID)
	for _, step := range r.Steps {
		if step.Err != nil {
			fmt.Printf("  %-17s error: %v\n", step.Name, step.Err)
		} else {
			fmt.Printf("  %-17s %d\n", step.Name, step.Count)
		}
	}
	if r.Selected == 0 && r.Err() == nil {
		fmt.Println("No new feedback to process.")
		return
	}
	fmt.Printf("\nSentiments: %d  Issues: %d  Feature requests: %d  Skipped: %d\n",
		r.Sentiments, r.Issues, r.Requests, r.Skipped)
}
