package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/reactor/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reactor.json"

	// DefaultMaxUpdateCount bounds how often one watcher may run per flush.
	DefaultMaxUpdateCount = 100

	// DefaultAddr is the default listen address of the serve command.
	DefaultAddr = ":8080"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultHistorySize is the number of frames kept for new clients.
	DefaultHistorySize = 256

	// DefaultArchiveDir is the disk archive directory.
	DefaultArchiveDir = ".reactor/archive"
)

// Config represents the complete reactor.json configuration.
type Config struct {
	// MaxUpdateCount bounds watcher runs per flush before a cycle is reported.
	MaxUpdateCount int `json:"maxUpdateCount,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty"`

	// StrictBackend makes the in-memory backend panic on impossible
	// operations instead of ignoring them.
	StrictBackend bool `json:"strictBackend,omitempty"`

	// Serve configures the serve command.
	Serve ServeConfig `json:"serve,omitempty"`

	// Stream configures the frame stream.
	Stream StreamConfig `json:"stream,omitempty"`

	// Archive configures where frame logs are stored.
	Archive ArchiveConfig `json:"archive,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServeConfig contains the serve command settings.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// MetricsPath is the Prometheus endpoint path.
	MetricsPath string `json:"metricsPath,omitempty"`

	// TickInterval is how often the demo app mutates its state (e.g., "2s").
	TickInterval string `json:"tickInterval,omitempty"`

	// WriteTimeout bounds each websocket write (e.g., "10s").
	WriteTimeout string `json:"writeTimeout,omitempty"`

	// AllowedOrigins lists the Origin values accepted on /ws besides the
	// server's own host. "*" accepts any origin. Empty means same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// StreamConfig contains frame stream settings.
type StreamConfig struct {
	// HistorySize is the number of frames replayed to new clients.
	HistorySize int `json:"historySize,omitempty"`

	// ClientBuffer is the number of frames queued per client before it is
	// dropped as too slow.
	ClientBuffer int `json:"clientBuffer,omitempty"`
}

// ArchiveConfig contains frame log storage settings. A non-empty S3Bucket
// selects the S3 store; otherwise logs go to Dir.
type ArchiveConfig struct {
	Dir         string `json:"dir,omitempty"`
	S3Bucket    string `json:"s3Bucket,omitempty"`
	S3Prefix    string `json:"s3Prefix,omitempty"`
	S3Region    string `json:"s3Region,omitempty"`
	S3Endpoint  string `json:"s3Endpoint,omitempty"`
	S3PathStyle bool   `json:"s3PathStyle,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		MaxUpdateCount: DefaultMaxUpdateCount,
		LogLevel:       "info",
		Serve: ServeConfig{
			Addr:         DefaultAddr,
			MetricsPath:  DefaultMetricsPath,
			TickInterval: "2s",
			WriteTimeout: "10s",
		},
		Stream: StreamConfig{
			HistorySize:  DefaultHistorySize,
			ClientBuffer: 64,
		},
		Archive: ArchiveConfig{
			Dir:      DefaultArchiveDir,
			S3Prefix: "reactor/",
			S3Region: "us-east-1",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for reactor.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadOrDefault is Load, but a missing file yields the defaults.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if stderrors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	return cfg, err
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").
				WithSubject(path).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithHint("Run `reactor config --write` to create one with the defaults.").
				Wrap(err)
		}
		return nil, errors.New("C001").WithSubject(path).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C001").
			WithSubject(path).
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithHint("Check that " + ConfigFileName + " is valid JSON.")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := c.JSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C001").WithSubject(path).Wrap(err)
	}
	c.configPath = path
	return nil
}

// JSON returns the configuration as indented JSON with a trailing newline.
func (c *Config) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, errors.New("C001").Wrap(err)
	}
	return append(data, '\n'), nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.MaxUpdateCount == 0 {
		c.MaxUpdateCount = d.MaxUpdateCount
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = d.Serve.Addr
	}
	if c.Serve.MetricsPath == "" {
		c.Serve.MetricsPath = d.Serve.MetricsPath
	}
	if c.Serve.TickInterval == "" {
		c.Serve.TickInterval = d.Serve.TickInterval
	}
	if c.Serve.WriteTimeout == "" {
		c.Serve.WriteTimeout = d.Serve.WriteTimeout
	}
	if c.Stream.HistorySize == 0 {
		c.Stream.HistorySize = d.Stream.HistorySize
	}
	if c.Stream.ClientBuffer == 0 {
		c.Stream.ClientBuffer = d.Stream.ClientBuffer
	}
	if c.Archive.Dir == "" {
		c.Archive.Dir = d.Archive.Dir
	}
	if c.Archive.S3Region == "" {
		c.Archive.S3Region = d.Archive.S3Region
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New("C001").WithSubject(c.configPath).WithDetail(detail)
	}
	if c.MaxUpdateCount < 1 {
		return invalid("maxUpdateCount must be at least 1")
	}
	if _, err := c.Level(); err != nil {
		return invalid("logLevel must be one of debug, info, warn, error")
	}
	if !strings.HasPrefix(c.Serve.MetricsPath, "/") {
		return invalid("serve.metricsPath must start with /")
	}
	if d, err := time.ParseDuration(c.Serve.TickInterval); err != nil || d <= 0 {
		return invalid("serve.tickInterval must be a positive duration such as \"2s\"")
	}
	if d, err := time.ParseDuration(c.Serve.WriteTimeout); err != nil || d <= 0 {
		return invalid("serve.writeTimeout must be a positive duration such as \"10s\"")
	}
	for _, o := range c.Serve.AllowedOrigins {
		if o == "*" {
			continue
		}
		if u, err := url.Parse(o); err != nil || u.Scheme == "" || u.Host == "" {
			return invalid(fmt.Sprintf("serve.allowedOrigins entry %q must be \"*\" or scheme://host", o))
		}
	}
	if c.Stream.HistorySize < 1 {
		return invalid("stream.historySize must be at least 1")
	}
	if c.Stream.ClientBuffer < 1 {
		return invalid("stream.clientBuffer must be at least 1")
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

// TickInterval returns the parsed serve tick interval.
func (c *Config) TickInterval() time.Duration {
	d, _ := time.ParseDuration(c.Serve.TickInterval)
	return d
}

// WriteTimeout returns the parsed websocket write timeout.
func (c *Config) WriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Serve.WriteTimeout)
	return d
}
