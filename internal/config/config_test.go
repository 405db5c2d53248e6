package config

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/reactor/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.MaxUpdateCount != DefaultMaxUpdateCount {
		t.Errorf("MaxUpdateCount = %d, want %d", cfg.MaxUpdateCount, DefaultMaxUpdateCount)
	}
	if cfg.Serve.Addr != DefaultAddr {
		t.Errorf("Serve.Addr = %q, want %q", cfg.Serve.Addr, DefaultAddr)
	}
	if len(cfg.Serve.AllowedOrigins) != 0 {
		t.Errorf("Serve.AllowedOrigins = %v, want same-origin only", cfg.Serve.AllowedOrigins)
	}
	if cfg.Stream.HistorySize != DefaultHistorySize {
		t.Errorf("Stream.HistorySize = %d, want %d", cfg.Stream.HistorySize, DefaultHistorySize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.TickInterval() != 2*time.Second || cfg.WriteTimeout() != 10*time.Second {
		t.Errorf("durations = %v, %v", cfg.TickInterval(), cfg.WriteTimeout())
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("Expected error for missing config")
	}
	var re *errors.ReactorError
	if !stderrors.As(err, &re) || re.Code != "C001" {
		t.Errorf("expected C001, got %v", err)
	}

	configJSON := `{
  "maxUpdateCount": 20,
  "logLevel": "debug",
  "serve": {"addr": "127.0.0.1:9000", "tickInterval": "500ms"},
  "stream": {"historySize": 8},
  "archive": {"s3Bucket": "logs"}
}`
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := New()
	want.MaxUpdateCount = 20
	want.LogLevel = "debug"
	want.Serve.Addr = "127.0.0.1:9000"
	want.Serve.TickInterval = "500ms"
	want.Stream.HistorySize = 8
	want.Archive.S3Bucket = "logs"
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if cfg.Path() != configPath {
		t.Errorf("Path() = %q, want %q", cfg.Path(), configPath)
	}
	if l, _ := cfg.Level(); l != slog.LevelDebug {
		t.Errorf("Level() = %v", l)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Serve.Addr != DefaultAddr {
		t.Errorf("expected defaults, got %+v", cfg.Serve)
	}

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{not json"), 0644)
	if _, err := LoadOrDefault(dir); err == nil {
		t.Error("expected parse error to be reported")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		detail string
	}{
		{"max update count", func(c *Config) { c.MaxUpdateCount = 0 }, "maxUpdateCount"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "logLevel"},
		{"metrics path", func(c *Config) { c.Serve.MetricsPath = "metrics" }, "metricsPath"},
		{"tick interval", func(c *Config) { c.Serve.TickInterval = "soon" }, "tickInterval"},
		{"negative tick", func(c *Config) { c.Serve.TickInterval = "-1s" }, "tickInterval"},
		{"write timeout", func(c *Config) { c.Serve.WriteTimeout = "0s" }, "writeTimeout"},
		{"history", func(c *Config) { c.Stream.HistorySize = -1 }, "historySize"},
		{"client buffer", func(c *Config) { c.Stream.ClientBuffer = 0 }, "clientBuffer"},
		{"origin", func(c *Config) { c.Serve.AllowedOrigins = []string{"localhost:5173"} }, "allowedOrigins"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			var re *errors.ReactorError
			if !stderrors.As(err, &re) {
				t.Fatalf("Validate() = %v, want ReactorError", err)
			}
			if !strings.Contains(re.Detail, tt.detail) {
				t.Errorf("Detail = %q, want mention of %q", re.Detail, tt.detail)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{"serve": {"metricsPath": "x"}}`), 0644)
	if _, err := Load(dir); err == nil {
		t.Error("expected validation error")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := New()
	cfg.Archive.Dir = "/var/lib/reactor"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasSuffix(string(data), "}\n") {
		t.Error("saved config should end with a newline")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
