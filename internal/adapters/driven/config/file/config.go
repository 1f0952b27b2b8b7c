package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full coursewatch configuration as loaded from config.toml.
type Config struct {
	Upstream  UpstreamConfig  `toml:"upstream"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Scrape    ScrapeConfig    `toml:"scrape"`
	Reconcile ReconcileConfig `toml:"reconcile"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Storage   StorageConfig   `toml:"storage"`
	Events    EventsConfig    `toml:"events"`
}

// UpstreamConfig locates and authenticates against the registrar API.
type UpstreamConfig struct {
	BaseURL        string `toml:"base_url"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// RateLimitConfig tunes the request throttle.
type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// ScrapeConfig tunes pagination and page retry behaviour.
type ScrapeConfig struct {
	PageMaxSize       int `toml:"page_max_size"`
	PageRetries       int `toml:"page_retries"`
	RetryDelaySeconds int `toml:"retry_delay_seconds"`
}

// RetryDelay returns the initial page retry backoff as a duration.
func (s ScrapeConfig) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelaySeconds) * time.Second
}

// ReconcileConfig tunes reconciliation conflict retries.
type ReconcileConfig struct {
	MaxAttempts      int `toml:"max_attempts"`
	RetryDelayMillis int `toml:"retry_delay_millis"`
}

// RetryDelay returns the conflict retry backoff as a duration.
func (r ReconcileConfig) RetryDelay() time.Duration {
	return time.Duration(r.RetryDelayMillis) * time.Millisecond
}

// SchedulerConfig drives periodic scraping in serve mode.
type SchedulerConfig struct {
	Terms           []string `toml:"terms"`
	IntervalMinutes int      `toml:"interval_minutes"`
}

// Interval returns the scrape interval as a duration.
func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// StorageConfig locates the SQLite data directory.
type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

// EventsConfig tunes the notification buffer.
type EventsConfig struct {
	BufferSize int `toml:"buffer_size"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Upstream: UpstreamConfig{
			TimeoutSeconds: 30,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             1,
		},
		Scrape: ScrapeConfig{
			PageMaxSize:       50,
			PageRetries:       3,
			RetryDelaySeconds: 1,
		},
		Reconcile: ReconcileConfig{
			MaxAttempts:      3,
			RetryDelayMillis: 100,
		},
		Scheduler: SchedulerConfig{
			IntervalMinutes: 60,
		},
		Events: EventsConfig{
			BufferSize: 64,
		},
	}
}

// Validate checks for values that cannot be worked around with defaults.
func (c Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative")
	}
	if c.Scheduler.IntervalMinutes < 0 {
		return fmt.Errorf("scheduler.interval_minutes must not be negative")
	}
	return nil
}

// Store loads and persists the configuration file.
type Store struct {
	mu       sync.RWMutex
	filePath string
	current  Config
}

// NewStore creates a config store rooted at configDir. If configDir is
// empty, defaults to ~/.coursewatch. A missing file yields the defaults.
func NewStore(configDir string) (*Store, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".coursewatch")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &Store{
		filePath: filepath.Join(configDir, "config.toml"),
		current:  Default(),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Load reads the configuration file, merging it over the defaults.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet - that's fine, keep the defaults
			s.current = Default()
			return nil
		}
		return err
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	s.current = cfg
	return nil
}

// Save persists the current configuration to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes the configuration file (caller must hold lock).
func (s *Store) save() error {
	data, err := toml.Marshal(s.current)
	if err != nil {
		return err
	}

	// Write with restricted permissions: the file holds credentials.
	return os.WriteFile(s.filePath, data, 0600)
}

// Get returns the current configuration snapshot.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the configuration and persists immediately.
func (s *Store) Set(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = cfg
	return s.save()
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.filePath
}
