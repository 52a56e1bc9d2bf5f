package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/TobiSchelling/FeedbackLens/internal/classifier"
	"github.com/TobiSchelling/FeedbackLens/internal/database"
	"github.com/TobiSchelling/FeedbackLens/internal/detect"
	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
	"github.com/TobiSchelling/FeedbackLens/internal/logger"
	"github.com/TobiSchelling/FeedbackLens/internal/report"
	"github.com/TobiSchelling/FeedbackLens/internal/sentiment"
	"github.com/TobiSchelling/FeedbackLens/internal/telemetry"
	"github.com/TobiSchelling/FeedbackLens/internal/textnorm"
)

// maxBodyBytes limits the size of an analyze request.
const maxBodyBytes = 1 << 20

// Analysis methods reported by /analyze.
const (
	MethodClassifier = "classifier"
	MethodLexicon    = "lexicon"
)

// Options carries the optional collaborators of a Server.
type Options struct {
	Classifier *classifier.Client
	Metrics    *telemetry.Metrics
	Logger     logger.Logger
}

// Server serves the JSON analysis and dashboard data API.
type Server struct {
	db         *database.DB
	analyzer   *sentiment.Analyzer
	classifier *classifier.Client
	metrics    *telemetry.Metrics
	log        logger.Logger
	reports    *report.Generator
	mux        *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB, analyzer *sentiment.Analyzer, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	s := &Server{
		db:         db,
		analyzer:   analyzer,
		classifier: opts.Classifier,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		reports:    report.NewGenerator(db, opts.Logger),
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/dashboard_data", s.handleDashboardData)
	s.mux.HandleFunc("/report", s.handleReport)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", s.metrics.Handler())
}

// endpoints lists the routes reported by the index.
var endpoints = map[string]string{
	"POST /analyze":       "score one text and store it as web feedback",
	"GET /dashboard_data": "sentiment counts per label",
	"GET /report":         "analysis summary (format=json|text|markdown|html)",
	"GET /metrics":        "Prometheus metrics",
	"GET /healthz":        "database health",
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":   "feedbacklens",
		"endpoints": endpoints,
	})
}

type analyzeRequest struct {
	Text *string `json:"text"`
}

type analyzeResponse struct {
	Sentiment       feedback.Sentiment        `json:"sentiment"`
	Confidence      float64                   `json:"confidence"`
	Score           float64                   `json:"score"`
	Method          string                    `json:"method"`
	FeedbackID      int64                     `json:"feedback_id,omitempty"`
	Issues          []feedback.Issue          `json:"issues"`
	FeatureRequests []feedback.FeatureRequest `json:"feature_requests"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Text == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No text provided"})
		return
	}
	text := *req.Text
	cleaned := textnorm.Clean(text)

	verdict, method := s.score(r.Context(), text, cleaned)
	s.metrics.RecordAnalyzeRequest(method)

	resp := analyzeResponse{
		Sentiment:       verdict.Label,
		Confidence:      sentiment.Round2(verdict.Confidence),
		Score:           sentiment.Round2(verdict.Score),
		Method:          method,
		Issues:          []feedback.Issue{},
		FeatureRequests: []feedback.FeatureRequest{},
	}

	id, err := s.store(text)
	if err != nil {
		// The verdict is still returned when the write fails.
		s.log.Error("Database error on insert", logger.Error(err))
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.FeedbackID = id

	if cleaned == "" {
		if err := s.db.MarkSkipped([]int64{id}, feedback.SkipEmptyText); err != nil {
			s.log.Error("Error marking feedback skipped", logger.Int64("feedback_id", id), logger.Error(err))
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Issues = append(resp.Issues, detect.Issues(cleaned, id)...)
	resp.FeatureRequests = append(resp.FeatureRequests, detect.FeatureRequests(cleaned, id)...)

	// The stored sentiment always comes from the lexicon method, whichever
	// method produced the response verdict.
	stored := verdict
	if method != MethodLexicon {
		stored = s.analyzer.Lexicon(cleaned)
	}
	s.saveAnalysis(id, stored, resp.Issues, resp.FeatureRequests)

	writeJSON(w, http.StatusOK, resp)
}

// score prefers the remote classifier on the raw text and falls back to the
// lexicon method on the cleaned text.
func (s *Server) score(ctx context.Context, raw, cleaned string) (sentiment.Verdict, string) {
	if s.classifier.IsConfigured() {
		dist, err := s.classifier.Classify(ctx, raw)
		if err == nil {
			return dist.Verdict(), MethodClassifier
		}
		s.log.Warn("Classifier failed, using lexicon", logger.Error(err))
	}
	return s.analyzer.Lexicon(cleaned), MethodLexicon
}

func (s *Server) store(text string) (int64, error) {
	channel := "web"
	date := time.Now().Format("2006-01-02")
	return s.db.InsertFeedback(feedback.Item{Text: &text, Channel: &channel, FeedbackDate: &date})
}

func (s *Server) saveAnalysis(id int64, v sentiment.Verdict, issues []feedback.Issue, requests []feedback.FeatureRequest) {
	err := s.db.SaveSentimentResults([]feedback.SentimentResult{{
		FeedbackID: id,
		Sentiment:  v.Label,
		Confidence: sentiment.Round2(v.Confidence),
		Score:      sentiment.Round2(v.Score),
	}})
	err = multierr.Combine(err, s.db.SaveIssues(issues), s.db.SaveFeatureRequests(requests))
	if err != nil {
		s.log.Error("Error saving analysis", logger.Int64("feedback_id", id), logger.Error(err))
	}
}

func (s *Server) handleDashboardData(w http.ResponseWriter, r *http.Request) {
	counts, err := s.sentimentCounts()
	if err != nil {
		s.log.Error("Error loading dashboard counts", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// sentimentCounts returns counts for all three labels, zero when absent.
func (s *Server) sentimentCounts() (map[string]int, error) {
	rows, err := s.db.SentimentDistribution()
	if err != nil {
		return nil, err
	}
	counts := map[string]int{
		string(feedback.Positive): 0,
		string(feedback.Negative): 0,
		string(feedback.Neutral):  0,
	}
	for _, row := range rows {
		if _, ok := counts[row.Key]; ok {
			counts[row.Key] = row.Count
		}
	}
	return counts, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatJSON
	}

	summary, err := s.reports.Generate()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Report generation failed"})
		return
	}

	var buf bytes.Buffer
	if err := summary.Write(&buf, format); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	switch format {
	case report.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case report.FormatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	case report.FormatMarkdown:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.db.GetStats(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server listening", logger.String("addr", "http://"+addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Addr formats a listen address; an empty host means localhost.
func Addr(host string, port int) string {
	if strings.TrimSpace(host) == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("%s:%d", host, port)
}
