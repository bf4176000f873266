package llm

import (
	"log/slog"
	"time"
)

// Config holds the envelope settings shared by all LLM-backed stages
type Config struct {
	// Enabled turns the LLM stages on. When false every LLM stage is a no-op.
	Enabled bool

	// MaxConcurrency bounds the concurrent model calls of one stage or wave
	MaxConcurrency int

	// MaxRetries is the number of extra attempts per block (>= 0)
	MaxRetries int

	// RetryBackoff is multiplied by the attempt number between retries
	RetryBackoff time.Duration

	// Timeout bounds a single call when positive. Zero leaves it to the service.
	Timeout time.Duration

	// MaxImageSide downscales block images so neither side exceeds it (pixels)
	MaxImageSide int

	// Logger receives block-level failures. nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default envelope configuration
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		MaxConcurrency: 3,
		MaxRetries:     2,
		RetryBackoff:   500 * time.Millisecond,
		MaxImageSide:   1024,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// active reports whether stages should run at all.
func (c Config) active(svc Service) bool {
	return c.Enabled && svc != nil
}
