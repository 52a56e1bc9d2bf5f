package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if !cfg.Processing.MarkEmptySkipped {
		t.Error("expected skip markers to be enabled by default")
	}
	if cfg.Scheduler.Interval != time.Hour {
		t.Errorf("expected interval 1h, got %v", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.RetryDelay != 5*time.Minute {
		t.Errorf("expected retry delay 5m, got %v", cfg.Scheduler.RetryDelay)
	}
	if cfg.Lock.Enabled() {
		t.Error("expected lock to be disabled without a redis address")
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Output.DBFile != "feedback.db" {
		t.Errorf("expected db file feedback.db, got %q", cfg.Output.DBFile)
	}
}

func TestDefaultYAMLMatchesDefaults(t *testing.T) {
	fromYAML, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}
	d := Defaults()
	if fromYAML.Lock != d.Lock || fromYAML.Scheduler != d.Scheduler ||
		fromYAML.Server != d.Server || fromYAML.Logging != d.Logging {
		t.Errorf("default.yaml and Defaults() disagree:\n%+v\n%+v", fromYAML, d)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
processing:
  mark_empty_skipped: false
scheduler:
  interval: 30m
sources:
  feeds:
    - url: https://example.com/reviews.rss
      product_id: P1
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Processing.MarkEmptySkipped {
		t.Error("expected skip markers disabled")
	}
	if cfg.Scheduler.Interval != 30*time.Minute {
		t.Errorf("expected interval 30m, got %v", cfg.Scheduler.Interval)
	}
	// Unspecified fields keep their defaults.
	if cfg.Scheduler.RetryDelay != 5*time.Minute {
		t.Errorf("expected default retry delay, got %v", cfg.Scheduler.RetryDelay)
	}
	if len(cfg.Sources.Feeds) != 1 || cfg.Sources.Feeds[0].ProductID != "P1" {
		t.Errorf("unexpected feeds: %+v", cfg.Sources.Feeds)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := parse([]byte("scheduler: [oops")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Classifier.Timeout != 30*time.Second {
		t.Errorf("expected classifier timeout 30s, got %v", cfg.Classifier.Timeout)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDataDir, "/tmp/fl")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvClassifierURL, "http://model:8080/classify")
	t.Setenv(EnvServerPort, "8081")

	cfg := Defaults()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetDataDir() != "/tmp/fl" {
		t.Errorf("expected data dir override, got %q", cfg.GetDataDir())
	}
	if !cfg.Lock.Enabled() {
		t.Error("expected lock enabled from env")
	}
	if cfg.Classifier.URL != "http://model:8080/classify" {
		t.Errorf("expected classifier url override, got %q", cfg.Classifier.URL)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.Server.Port)
	}
}

func TestApplyEnvInvalidPort(t *testing.T) {
	t.Setenv(EnvServerPort, "eighty")
	if err := Defaults().ApplyEnv(); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FEEDBACKLENS_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FEEDBACKLENS_TEST_DOTENV", "")
	os.Unsetenv("FEEDBACKLENS_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("FEEDBACKLENS_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("expected missing .env to be ignored, got %v", err)
	}
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit path")
	}
}

func TestPaths(t *testing.T) {
	cfg := &Config{}
	if cfg.GetDataDir() == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.DBPath() != filepath.Join("/custom/path", "feedback.db") {
		t.Errorf("unexpected db path %q", cfg.DBPath())
	}
	if cfg.ExportDir() != filepath.Join("/custom/path", "exports") {
		t.Errorf("unexpected export dir %q", cfg.ExportDir())
	}

	cfg.Output.DBFile = "/abs/other.db"
	if cfg.DBPath() != "/abs/other.db" {
		t.Errorf("expected absolute db file to win, got %q", cfg.DBPath())
	}
}
