package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/innero/axel/internal/mirror"
	"github.com/innero/axel/internal/progress"
)

// Config defines configuration for a mirror search.
type Config struct {
	URL                 string        `yaml:"url"`
	SearchURL           string        `yaml:"search_url"`
	MaxCandidates       int           `yaml:"max_candidates"`
	MaxConcurrentProbes int           `yaml:"max_concurrent_probes"`
	ProbeTimeout        time.Duration `yaml:"probe_timeout"`
	PollInterval        time.Duration `yaml:"poll_interval"`
	LaunchRate          float64       `yaml:"launch_rate"`
	MaxResponseSize     int64         `yaml:"max_response_size"`
	UserAgent           string        `yaml:"user_agent"`
	LogLevel            string        `yaml:"log_level"`
	Progress            bool          `yaml:"progress"`
	MetricsFile         string        `yaml:"metrics_file"`
	HTTP                HTTPConfig    `yaml:"http"`
	Report              ReportConfig  `yaml:"report"`
}

// HTTPConfig configures origin and query requests.
type HTTPConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	RetryAttempts   int           `yaml:"retry_attempts"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
	RetryMaxBackoff time.Duration `yaml:"retry_max_backoff"`
}

// ReportConfig selects where the ranking report is exported.
type ReportConfig struct {
	Bucket    string `yaml:"bucket"`
	Object    string `yaml:"object"`
	Overwrite bool   `yaml:"overwrite"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		SearchURL:           mirror.DefaultSearchURL,
		MaxCandidates:       15,
		MaxConcurrentProbes: 3,
		ProbeTimeout:        10 * time.Second,
		PollInterval:        10 * time.Millisecond,
		MaxResponseSize:     4 * 1024 * 1024, // 4MB
		LogLevel:            "warn",
		HTTP: HTTPConfig{
			Timeout:         30 * time.Second,
			RetryBackoff:    time.Second,
			RetryMaxBackoff: 30 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	URL                 string           `yaml:"url"`
	SearchURL           string           `yaml:"search_url"`
	MaxCandidates       int              `yaml:"max_candidates"`
	MaxConcurrentProbes int              `yaml:"max_concurrent_probes"`
	ProbeTimeout        string           `yaml:"probe_timeout"`
	PollInterval        string           `yaml:"poll_interval"`
	LaunchRate          float64          `yaml:"launch_rate"`
	MaxResponseSize     string           `yaml:"max_response_size"`
	UserAgent           string           `yaml:"user_agent"`
	LogLevel            string           `yaml:"log_level"`
	Progress            bool             `yaml:"progress"`
	MetricsFile         string           `yaml:"metrics_file"`
	HTTP                yamlHTTPConfig   `yaml:"http"`
	Report              yamlReportConfig `yaml:"report"`
}

type yamlHTTPConfig struct {
	Timeout         string `yaml:"timeout"`
	RetryAttempts   int    `yaml:"retry_attempts"`
	RetryBackoff    string `yaml:"retry_backoff"`
	RetryMaxBackoff string `yaml:"retry_max_backoff"`
}

type yamlReportConfig struct {
	Bucket    string `yaml:"bucket"`
	Object    string `yaml:"object"`
	Overwrite bool   `yaml:"overwrite"`
}

// LoadFromFile loads configuration from a YAML file on top of Default.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	cfg.URL = yc.URL
	if yc.SearchURL != "" {
		cfg.SearchURL = yc.SearchURL
	}
	if yc.MaxCandidates != 0 {
		cfg.MaxCandidates = yc.MaxCandidates
	}
	if yc.MaxConcurrentProbes != 0 {
		cfg.MaxConcurrentProbes = yc.MaxConcurrentProbes
	}
	cfg.LaunchRate = yc.LaunchRate
	if yc.MaxResponseSize != "" {
		size, err := progress.ParseBytes(yc.MaxResponseSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse max_response_size: %w", err)
		}
		cfg.MaxResponseSize = size
	}
	cfg.UserAgent = yc.UserAgent
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}
	cfg.Progress = yc.Progress
	cfg.MetricsFile = yc.MetricsFile
	if yc.HTTP.RetryAttempts != 0 {
		cfg.HTTP.RetryAttempts = yc.HTTP.RetryAttempts
	}
	cfg.Report = ReportConfig(yc.Report)

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"probe_timeout", yc.ProbeTimeout, &cfg.ProbeTimeout},
		{"poll_interval", yc.PollInterval, &cfg.PollInterval},
		{"http.timeout", yc.HTTP.Timeout, &cfg.HTTP.Timeout},
		{"http.retry_backoff", yc.HTTP.RetryBackoff, &cfg.HTTP.RetryBackoff},
		{"http.retry_max_backoff", yc.HTTP.RetryMaxBackoff, &cfg.HTTP.RetryMaxBackoff},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dst = v
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the AXEL_ prefix.
func (c *Config) LoadFromEnv() error {
	strs := map[string]*string{
		"AXEL_URL":           &c.URL,
		"AXEL_SEARCH_URL":    &c.SearchURL,
		"AXEL_USER_AGENT":    &c.UserAgent,
		"AXEL_LOG_LEVEL":     &c.LogLevel,
		"AXEL_METRICS_FILE":  &c.MetricsFile,
		"AXEL_REPORT_BUCKET": &c.Report.Bucket,
		"AXEL_REPORT_OBJECT": &c.Report.Object,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"AXEL_MAX_CANDIDATES":        &c.MaxCandidates,
		"AXEL_MAX_CONCURRENT_PROBES": &c.MaxConcurrentProbes,
		"AXEL_HTTP_RETRY_ATTEMPTS":   &c.HTTP.RetryAttempts,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parse %s: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"AXEL_PROBE_TIMEOUT":          &c.ProbeTimeout,
		"AXEL_POLL_INTERVAL":          &c.PollInterval,
		"AXEL_HTTP_TIMEOUT":           &c.HTTP.Timeout,
		"AXEL_HTTP_RETRY_BACKOFF":     &c.HTTP.RetryBackoff,
		"AXEL_HTTP_RETRY_MAX_BACKOFF": &c.HTTP.RetryMaxBackoff,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("parse %s: %w", key, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("AXEL_LAUNCH_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse AXEL_LAUNCH_RATE: %w", err)
		}
		c.LaunchRate = r
	}
	if v := os.Getenv("AXEL_MAX_RESPONSE_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse AXEL_MAX_RESPONSE_SIZE: %w", err)
		}
		c.MaxResponseSize = size
	}
	if v := os.Getenv("AXEL_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("AXEL_REPORT_OVERWRITE"); v != "" {
		c.Report.Overwrite = v == "true" || v == "1"
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("config: URL is required")
	}
	u, err := url.Parse(c.SearchURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: search_url must be an absolute http(s) URL: %q", c.SearchURL)
	}
	if c.MaxCandidates < 1 {
		return errors.New("config: max_candidates must be positive")
	}
	if c.MaxConcurrentProbes < 1 {
		return errors.New("config: max_concurrent_probes must be positive")
	}
	if c.ProbeTimeout <= 0 {
		return errors.New("config: probe_timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("config: poll_interval must be positive")
	}
	if c.LaunchRate < 0 {
		return errors.New("config: launch_rate must not be negative")
	}
	if c.MaxResponseSize < 8*1024 {
		return errors.New("config: max_response_size must be at least 8KB")
	}
	if c.Report.Object != "" && c.Report.Bucket == "" {
		return errors.New("config: report.object requires report.bucket")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.URL != "" {
		c.URL = override.URL
	}
	if override.SearchURL != "" {
		c.SearchURL = override.SearchURL
	}
	if override.MaxCandidates != 0 {
		c.MaxCandidates = override.MaxCandidates
	}
	if override.MaxConcurrentProbes != 0 {
		c.MaxConcurrentProbes = override.MaxConcurrentProbes
	}
	if override.ProbeTimeout != 0 {
		c.ProbeTimeout = override.ProbeTimeout
	}
	if override.PollInterval != 0 {
		c.PollInterval = override.PollInterval
	}
	if override.LaunchRate != 0 {
		c.LaunchRate = override.LaunchRate
	}
	if override.MaxResponseSize != 0 {
		c.MaxResponseSize = override.MaxResponseSize
	}
	if override.UserAgent != "" {
		c.UserAgent = override.UserAgent
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.MetricsFile != "" {
		c.MetricsFile = override.MetricsFile
	}
	if override.HTTP.Timeout != 0 {
		c.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.RetryAttempts != 0 {
		c.HTTP.RetryAttempts = override.HTTP.RetryAttempts
	}
	if override.HTTP.RetryBackoff != 0 {
		c.HTTP.RetryBackoff = override.HTTP.RetryBackoff
	}
	if override.HTTP.RetryMaxBackoff != 0 {
		c.HTTP.RetryMaxBackoff = override.HTTP.RetryMaxBackoff
	}
	if override.Report.Bucket != "" {
		c.Report.Bucket = override.Report.Bucket
	}
	if override.Report.Object != "" {
		c.Report.Object = override.Report.Object
	}
	if override.Report.Overwrite {
		c.Report.Overwrite = override.Report.Overwrite
	}
	return c
}
