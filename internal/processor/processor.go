// Package processor runs the batch analysis over feedback that has no
// sentiment result yet.
package processor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/TobiSchelling/FeedbackLens/internal/coordination"
	"github.com/TobiSchelling/FeedbackLens/internal/detect"
	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
	"github.com/TobiSchelling/FeedbackLens/internal/logger"
	"github.com/TobiSchelling/FeedbackLens/internal/sentiment"
	"github.com/TobiSchelling/FeedbackLens/internal/telemetry"
	"github.com/TobiSchelling/FeedbackLens/internal/textnorm"
)

// Step names reported in Result.Steps.
const (
	StepLock        = "lock"
	StepSelect      = "select"
	StepSentiment   = "sentiment"
	StepIssues      = "issues"
	StepRequests    = "feature_requests"
	StepSkipMarkers = "skip_markers"
)

// SkipReasonEmpty marks feedback whose text is empty after cleaning.
const SkipReasonEmpty = feedback.SkipEmptyText

// Store is the feedback source and the sink for analysis results.
type Store interface {
	GetUnprocessedFeedback(excludeSkipped bool) ([]feedback.Item, error)
	SaveSentimentResults(results []feedback.SentimentResult) error
	SaveIssues(issues []feedback.Issue) error
	SaveFeatureRequests(requests []feedback.FeatureRequest) error
	MarkSkipped(ids []int64, reason string) error
}

// Scorer produces both sentiment verdicts for a cleaned text.
type Scorer interface {
	Analyze(text string) sentiment.Analysis
}

// Options configures a Processor. The zero value is usable.
type Options struct {
	// MarkSkipped records empty-text items so later runs do not select them.
	MarkSkipped bool
	Locker      coordination.Locker
	// LockRefresh is how often a held lock is refreshed during a run.
	// Zero uses a third of coordination.DefaultLockTTL.
	LockRefresh time.Duration
	Metrics     *telemetry.Metrics
	Logger      logger.Logger
}

// StepResult holds the outcome of one stage of a run.
type StepResult struct {
	Name  string
	Count int
	Err   error
}

// Result holds the results of a processing run.
type Result struct {
	RunID      string
	Selected   int
	Skipped    int
	Sentiments int
	Issues     int
	Requests   int
	Steps      []StepResult
}

// Err combines the errors of all failed steps. It is nil for a run that
// completed, including a run that found nothing to do.
func (r *Result) Err() error {
	var err error
	for _, s := range r.Steps {
		err = multierr.Append(err, s.Err)
	}
	return err
}

// Step returns the named step, or nil if the run never reached it.
func (r *Result) Step(name string) *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i]
		}
	}
	return nil
}

// Processor analyses unprocessed feedback and persists the results.
type Processor struct {
	store  Store
	scorer Scorer
	opts   Options
}

// New creates a processor.
func New(store Store, scorer Scorer, opts Options) *Processor {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Locker == nil {
		opts.Locker = coordination.NopLock{}
	}
	return &Processor{store: store, scorer: scorer, opts: opts}
}

type batch struct {
	sentiments []feedback.SentimentResult
	issues     []feedback.Issue
	requests   []feedback.FeatureRequest
	skipped    []int64
}

// Run performs one full pass: select, analyse every item, then persist each
// result collection in its own transaction. A failed write does not prevent
// the others.
func (p *Processor) Run(ctx context.Context) *Result {
	start := time.Now()
	r := &Result{RunID: uuid.New().String()}
	log := p.opts.Logger.With(logger.String("run_id", r.RunID))

	if err := p.opts.Locker.TryLock(ctx); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: StepLock, Err: err})
		if errors.Is(err, coordination.ErrLockNotAcquired) {
			log.Info("Another run is in progress, skipping")
			p.opts.Metrics.RecordRun(telemetry.OutcomeSkipped, time.Since(start))
		} else {
			log.Error("Acquiring run lock failed", logger.Error(err))
			p.opts.Metrics.RecordRun(telemetry.OutcomeFailed, time.Since(start))
		}
		return r
	}
	stopRefresh := coordination.KeepAlive(ctx, p.opts.Locker, p.opts.LockRefresh, func(err error) {
		log.Warn("Refreshing run lock failed", logger.Error(err))
	})
	defer func() {
		stopRefresh()
		if err := p.opts.Locker.Unlock(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Releasing run lock failed", logger.Error(err))
		}
	}()

	log.Info("Starting feedback processing")

	items, err := p.store.GetUnprocessedFeedback(p.opts.MarkSkipped)
	r.Steps = append(r.Steps, StepResult{Name: StepSelect, Count: len(items), Err: err})
	if err != nil {
		log.Error("Error getting unprocessed feedback", logger.Error(err))
		p.opts.Metrics.RecordRun(telemetry.OutcomeFailed, time.Since(start))
		return r
	}
	r.Selected = len(items)

	if len(items) == 0 {
		log.Info("No new feedback to process")
		p.opts.Metrics.RecordRun(telemetry.OutcomeEmpty, time.Since(start))
		return r
	}

	log.Info("Processing feedback items", logger.Int("count", len(items)))

	b := p.analyze(items)
	r.Skipped = len(b.skipped)
	r.Sentiments = len(b.sentiments)
	r.Issues = len(b.issues)
	r.Requests = len(b.requests)

	p.persist(log, r, b)

	log.Info("Processing complete",
		logger.Int("sentiments", r.Sentiments),
		logger.Int("issues", r.Issues),
		logger.Int("requests", r.Requests),
		logger.Int("skipped", r.Skipped),
		logger.Duration("elapsed", time.Since(start)),
	)

	outcome := telemetry.OutcomeOK
	if r.Err() != nil {
		outcome = telemetry.OutcomeFailed
	}
	p.opts.Metrics.RecordRun(outcome, time.Since(start))
	return r
}

func (p *Processor) analyze(items []feedback.Item) batch {
	var b batch
	for _, item := range items {
		cleaned := textnorm.CleanNullable(item.Text)
		if cleaned == "" {
			b.skipped = append(b.skipped, item.ID)
			continue
		}

		b.sentiments = append(b.sentiments, p.scorer.Analyze(cleaned).Result(item.ID))
		b.issues = append(b.issues, detect.Issues(cleaned, item.ID)...)
		b.requests = append(b.requests, detect.FeatureRequests(cleaned, item.ID)...)
	}
	return b
}

func (p *Processor) persist(log logger.Logger, r *Result, b batch) {
	m := p.opts.Metrics

	step := save(log, m, StepSentiment, len(b.sentiments), func() error {
		return p.store.SaveSentimentResults(b.sentiments)
	})
	r.Steps = append(r.Steps, step)
	if step.Err == nil {
		for _, s := range b.sentiments {
			m.RecordSentiment(string(s.Sentiment))
		}
	}

	step = save(log, m, StepIssues, len(b.issues), func() error {
		return p.store.SaveIssues(b.issues)
	})
	r.Steps = append(r.Steps, step)
	if step.Err == nil {
		for _, is := range b.issues {
			m.RecordIssue(is.Category)
		}
	}

	step = save(log, m, StepRequests, len(b.requests), func() error {
		return p.store.SaveFeatureRequests(b.requests)
	})
	r.Steps = append(r.Steps, step)
	if step.Err == nil {
		m.RecordFeatureRequests(len(b.requests))
	}

	if len(b.skipped) == 0 {
		return
	}
	m.RecordSkipped(len(b.skipped))
	if !p.opts.MarkSkipped {
		log.Debug("Skipped empty feedback", logger.Int("count", len(b.skipped)))
		return
	}
	r.Steps = append(r.Steps, save(log, m, StepSkipMarkers, len(b.skipped), func() error {
		return p.store.MarkSkipped(b.skipped, SkipReasonEmpty)
	}))
}

func save(log logger.Logger, m *telemetry.Metrics, name string, n int, fn func() error) StepResult {
	if n == 0 {
		return StepResult{Name: name}
	}
	if err := fn(); err != nil {
		log.Error("Error saving "+name, logger.Error(err), logger.Int("count", n))
		m.RecordPersistenceFailure(name)
		return StepResult{Name: name, Err: err}
	}
	log.Info("Saved "+name, logger.Int("count", n))
	return StepResult{Name: name, Count: n}
}
