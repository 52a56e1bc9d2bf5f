package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// Environment variables that override file settings.
const (
	EnvDataDir       = "FEEDBACKLENS_DATA_DIR"
	EnvRedisAddr     = "FEEDBACKLENS_REDIS_ADDR"
	EnvClassifierURL = "FEEDBACKLENS_CLASSIFIER_URL"
	EnvLogLevel      = "FEEDBACKLENS_LOG_LEVEL"
	EnvServerPort    = "FEEDBACKLENS_PORT"
)

type Config struct {
	Sources    Sources    `yaml:"sources"`
	Processing Processing `yaml:"processing"`
	Scheduler  Scheduler  `yaml:"scheduler"`
	Lock       Lock       `yaml:"lock"`
	Classifier Classifier `yaml:"classifier"`
	Export     Export     `yaml:"export"`
	Server     Server     `yaml:"server"`
	Output     Output     `yaml:"output"`
	Logging    Logging    `yaml:"logging"`
}

type Sources struct {
	Feeds        []Feed        `yaml:"feeds"`
	MaxPerFeed   int           `yaml:"max_per_feed"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

type Feed struct {
	URL       string `yaml:"url"`
	Name      string `yaml:"name"`
	ProductID string `yaml:"product_id"`
}

type Processing struct {
	MarkEmptySkipped bool `yaml:"mark_empty_skipped"`
}

type Scheduler struct {
	Interval   time.Duration `yaml:"interval"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type Lock struct {
	RedisAddr        string        `yaml:"redis_addr"`
	RedisPasswordEnv string        `yaml:"redis_password_env"`
	RedisDB          int           `yaml:"redis_db"`
	Key              string        `yaml:"key"`
	TTL              time.Duration `yaml:"ttl"`
}

// Enabled reports whether a Redis address is configured.
func (l Lock) Enabled() bool {
	return l.RedisAddr != ""
}

// RedisPassword reads the password from the configured environment variable.
func (l Lock) RedisPassword() string {
	if l.RedisPasswordEnv == "" {
		return ""
	}
	return os.Getenv(l.RedisPasswordEnv)
}

type Classifier struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Export struct {
	Dir  string `yaml:"dir"`
	XLSX bool   `yaml:"xlsx"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
	DBFile  string `yaml:"db_file"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigDir returns the XDG config directory for feedbacklens.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "feedbacklens")
}

// DataDir returns the XDG data directory for feedbacklens.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "feedbacklens")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/feedbacklens/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'feedbacklens init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file, then applies environment
// overrides. Variables from a .env file in the working directory are loaded
// first; variables already set in the environment win.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads path into the environment if it exists.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Defaults returns the configuration used when no file sets a value.
func Defaults() *Config {
	return &Config{
		Sources: Sources{
			MaxPerFeed:   50,
			FetchTimeout: 15 * time.Second,
		},
		Processing: Processing{MarkEmptySkipped: true},
		Scheduler: Scheduler{
			Interval:   time.Hour,
			RetryDelay: 5 * time.Minute,
		},
		Lock: Lock{
			RedisPasswordEnv: "FEEDBACKLENS_REDIS_PASSWORD",
			Key:              "feedbacklens:process",
			TTL:              10 * time.Minute,
		},
		Classifier: Classifier{Timeout: 30 * time.Second},
		Server:     Server{Host: "127.0.0.1", Port: 5000},
		Output:     Output{DBFile: "feedback.db"},
		Logging:    Logging{Level: "info", Format: "console"},
	}
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from FEEDBACKLENS_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.Output.DataDir = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Lock.RedisAddr = v
	}
	if v := os.Getenv(EnvClassifierURL); v != "" {
		c.Classifier.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvServerPort, v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DBPath returns the SQLite database path.
func (c *Config) DBPath() string {
	name := c.Output.DBFile
	if name == "" {
		name = "feedback.db"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.GetDataDir(), name)
}

// ExportDir returns the export directory, defaulting to <data dir>/exports.
func (c *Config) ExportDir() string {
	if c.Export.Dir != "" {
		return c.Export.Dir
	}
	return filepath.Join(c.GetDataDir(), "exports")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
