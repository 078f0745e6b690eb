package llm

import (
	"context"
	"time"

	"github.com/Veraticus/aviation-bay/internal/capture"
	"github.com/Veraticus/aviation-bay/internal/model"
)

// Analyzer finds aircraft in a photograph.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, img capture.Image) ([]model.DetectedJet, error)
}

// Chatter produces the assistant's next turn from the recent conversation.
type Chatter interface {
	Reply(ctx context.Context, turns []model.Turn) (model.Turn, error)
}

// Client is implemented by every provider.
type Client interface {
	Analyzer
	Chatter
	// Ping sends a trivial prompt and succeeds when the provider answers "OK".
	Ping(ctx context.Context) error
	// Provider returns the provider name used in logs and metrics.
	Provider() string
}

// Config holds configuration for AI providers.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	ChatModel   string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

// Defaults applied when Config leaves a field zero.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 512
)

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c Config) temperature() float64 {
	if c.Temperature <= 0 {
		return DefaultTemperature
	}
	return c.Temperature
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.MaxTokens
}
