package deckpipe

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pitchsafe/pitchdeck/render"
)

// Config configures the extraction pipeline.
type Config struct {
	// RendererCandidates are converter invocations probed in order.
	RendererCandidates []string `yaml:"renderer_candidates"`

	// ProbeTimeoutSec bounds each converter liveness probe (default: 5).
	ProbeTimeoutSec int `yaml:"probe_timeout_sec"`

	// ConvertTimeoutSec bounds the whole PDF conversion (default: 120).
	ConvertTimeoutSec int `yaml:"convert_timeout_sec"`

	// ProbeCacheSec is how long a successful probe stays trusted before
	// re-verification (default: 300).
	ProbeCacheSec int `yaml:"probe_cache_sec"`

	// DPI is the screenshot resolution (default: 200).
	DPI int `yaml:"dpi"`

	// MaxFileSize is the largest source file accepted, in bytes
	// (default: 100 MB).
	MaxFileSize int64 `yaml:"max_file_size"`

	// Logger for progress and diagnostics.
	Logger *slog.Logger `yaml:"-"`

	// Events receives structured pipeline events. Nil means no events.
	Events EventSink `yaml:"-"`
}

func (c *Config) defaults() {
	if len(c.RendererCandidates) == 0 {
		c.RendererCandidates = render.DefaultCandidates
	}
	if c.ProbeTimeoutSec <= 0 {
		c.ProbeTimeoutSec = 5
	}
	if c.ConvertTimeoutSec <= 0 {
		c.ConvertTimeoutSec = 120
	}
	if c.ProbeCacheSec <= 0 {
		c.ProbeCacheSec = 300
	}
	if c.DPI <= 0 {
		c.DPI = 200
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Events == nil {
		c.Events = nopSink{}
	}
}

// LoadConfig reads a YAML config file merged over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, cfg.Validate()
}

// Validate checks that configured values are sane.
func (c *Config) Validate() error {
	if c.DPI < 36 || c.DPI > 1200 {
		return fmt.Errorf("dpi %d out of range (36-1200)", c.DPI)
	}
	if c.ConvertTimeoutSec < c.ProbeTimeoutSec {
		return fmt.Errorf("convert_timeout_sec %d shorter than probe_timeout_sec %d",
			c.ConvertTimeoutSec, c.ProbeTimeoutSec)
	}
	return nil
}

func (c *Config) probeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSec) * time.Second
}

func (c *Config) convertTimeout() time.Duration {
	return time.Duration(c.ConvertTimeoutSec) * time.Second
}

func (c *Config) probeCacheTTL() time.Duration {
	return time.Duration(c.ProbeCacheSec) * time.Second
}
