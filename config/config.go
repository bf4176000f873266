package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/docstruct/htmldoc"
	"github.com/tsawler/docstruct/llm"
	"github.com/tsawler/docstruct/processor"
	"github.com/tsawler/docstruct/render"
	"github.com/tsawler/docstruct/tables"
)

// Config is the top-level docstruct configuration.
type Config struct {
	Log        LogConfig    `yaml:"log"`
	LLM        LLMConfig    `yaml:"llm"`
	Tables     TablesConfig `yaml:"tables"`
	HTML       HTMLConfig   `yaml:"html"`
	Render     RenderConfig `yaml:"render"`
	Processors []string     `yaml:"processors"`
}

// LogConfig controls the logger built by NewLogger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// LLMConfig configures the LLM envelope.
type LLMConfig struct {
	Enabled        bool          `yaml:"enabled"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxImageSide   int           `yaml:"max_image_side"`
}

// TablesConfig configures table merging.
type TablesConfig struct {
	MergeThreshold       float64 `yaml:"merge_threshold"`
	ApplyMerges          bool    `yaml:"apply_merges"`
	HeaderMatchThreshold float64 `yaml:"header_match_threshold"`
	MaxGapRowMultiple    float64 `yaml:"max_gap_row_multiple"`
	PageMarginFraction   float64 `yaml:"page_margin_fraction"`
	MaxTitleChars        int     `yaml:"max_title_chars"`
}

// HTMLConfig configures the HTML provider.
type HTMLConfig struct {
	Furniture  string  `yaml:"furniture"` // none | explicit | standard | aggressive
	PageWidth  float64 `yaml:"page_width"`
	PageHeight float64 `yaml:"page_height"`
}

// RenderConfig configures JSON output.
type RenderConfig struct {
	Indent string `yaml:"indent"`
}

// Default returns the built-in configuration.
func Default() *Config {
	l := llm.DefaultConfig()
	m := tables.DefaultMergeConfig()
	h := htmldoc.DefaultOptions()

	kinds := processor.DefaultKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}

	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		LLM: LLMConfig{
			Enabled:        l.Enabled,
			MaxConcurrency: l.MaxConcurrency,
			MaxRetries:     l.MaxRetries,
			RetryBackoff:   l.RetryBackoff,
			Timeout:        l.Timeout,
			MaxImageSide:   l.MaxImageSide,
		},
		Tables: TablesConfig{
			MergeThreshold:       m.Threshold,
			ApplyMerges:          m.Apply,
			HeaderMatchThreshold: m.HeaderMatchThreshold,
			MaxGapRowMultiple:    m.MaxGapRowMultiple,
			PageMarginFraction:   m.PageMarginFraction,
			MaxTitleChars:        m.MaxTitleChars,
		},
		HTML: HTMLConfig{
			Furniture:  h.Furniture.String(),
			PageWidth:  h.PageWidth,
			PageHeight: h.PageHeight,
		},
		Processors: names,
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that values are in range.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unsupported %q (use text or json)", c.Log.Format)
	}
	if c.LLM.MaxConcurrency < 1 {
		return fmt.Errorf("llm.max_concurrency must be >= 1")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must be >= 0")
	}
	if c.LLM.RetryBackoff < 0 || c.LLM.Timeout < 0 {
		return fmt.Errorf("llm durations must not be negative")
	}
	if c.Tables.MergeThreshold < 0 || c.Tables.MergeThreshold > 1 {
		return fmt.Errorf("tables.merge_threshold must be within [0, 1]")
	}
	if _, err := htmldoc.ParseFurnitureMode(c.HTML.Furniture); err != nil {
		return fmt.Errorf("html.furniture: %w", err)
	}
	if _, err := c.Kinds(); err != nil {
		return fmt.Errorf("processors: %w", err)
	}
	return nil
}

// Kinds resolves the configured processor list.
func (c *Config) Kinds() ([]processor.Kind, error) {
	kinds := make([]processor.Kind, 0, len(c.Processors))
	for _, name := range c.Processors {
		k, err := processor.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// LLMEnvelope returns the envelope configuration.
func (c *Config) LLMEnvelope(logger *slog.Logger) llm.Config {
	return llm.Config{
		Enabled:        c.LLM.Enabled,
		MaxConcurrency: c.LLM.MaxConcurrency,
		MaxRetries:     c.LLM.MaxRetries,
		RetryBackoff:   c.LLM.RetryBackoff,
		Timeout:        c.LLM.Timeout,
		MaxImageSide:   c.LLM.MaxImageSide,
		Logger:         logger,
	}
}

// MergeConfig returns the merge engine configuration.
func (c *Config) MergeConfig(logger *slog.Logger) tables.MergeConfig {
	m := tables.DefaultMergeConfig()
	m.Threshold = c.Tables.MergeThreshold
	m.Apply = c.Tables.ApplyMerges
	m.HeaderMatchThreshold = c.Tables.HeaderMatchThreshold
	m.MaxGapRowMultiple = c.Tables.MaxGapRowMultiple
	m.PageMarginFraction = c.Tables.PageMarginFraction
	m.MaxTitleChars = c.Tables.MaxTitleChars
	m.Logger = logger
	return m
}

// Deps returns the stage dependencies for processor.Build.
func (c *Config) Deps(service llm.Service, logger *slog.Logger) processor.Deps {
	deps := processor.DefaultDeps()
	deps.Service = service
	deps.LLM = c.LLMEnvelope(logger)
	deps.Merge = c.MergeConfig(logger)
	deps.Logger = logger
	return deps
}

// HTMLOptions returns the HTML provider options.
func (c *Config) HTMLOptions() htmldoc.Options {
	opts := htmldoc.DefaultOptions()
	if mode, err := htmldoc.ParseFurnitureMode(c.HTML.Furniture); err == nil {
		opts.Furniture = mode
	}
	if c.HTML.PageWidth > 0 {
		opts.PageWidth = c.HTML.PageWidth
	}
	if c.HTML.PageHeight > 0 {
		opts.PageHeight = c.HTML.PageHeight
	}
	return opts
}

// RenderOptions returns the renderer configuration.
func (c *Config) RenderOptions(logger *slog.Logger) render.Config {
	return render.Config{Indent: c.Render.Indent, Logger: logger}
}

// NewLogger builds a slog logger writing to w.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level: unsupported %q", s)
}
