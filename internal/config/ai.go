package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/aviation-bay/internal/common"
	"github.com/Veraticus/aviation-bay/internal/llm"
	"github.com/spf13/viper"
)

// DefaultChatHistory is how many recent turns a chat request carries.
const DefaultChatHistory = 6

// LoadLLMConfig builds the AI provider configuration from the ai.* keys. API
// keys fall back to GEMINI_API_KEY and OPENAI_API_KEY; a missing key is left
// for the provider client to report.
func LoadLLMConfig() (llm.Config, error) {
	provider := strings.ToLower(viper.GetString("ai.provider"))
	if provider == "" {
		provider = llm.ProviderGemini
	}

	config := llm.Config{
		Provider:    provider,
		Model:       viper.GetString("ai.model"),
		ChatModel:   viper.GetString("ai.chat_model"),
		BaseURL:     viper.GetString("ai.base_url"),
		Temperature: viper.GetFloat64("ai.temperature"),
		MaxTokens:   viper.GetInt("ai.max_tokens"),
		Timeout:     viper.GetDuration("ai.timeout"),
		MaxRetries:  viper.GetInt("ai.max_retries"),
		RetryDelay:  viper.GetDuration("ai.retry_delay"),
		CacheTTL:    viper.GetDuration("ai.cache_ttl"),
		RateLimit:   viper.GetInt("ai.rate_limit"),
	}

	// Set defaults if not specified
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = llm.DefaultCacheTTL
	}
	if config.RateLimit == 0 {
		config.RateLimit = llm.DefaultRateLimit
	}

	switch provider {
	case llm.ProviderGemini:
		config.APIKey = firstNonEmpty(viper.GetString("ai.gemini_api_key"), os.Getenv("GEMINI_API_KEY"))
	case llm.ProviderOpenAI:
		config.APIKey = firstNonEmpty(viper.GetString("ai.openai_api_key"), os.Getenv("OPENAI_API_KEY"))
	default:
		return llm.Config{}, fmt.Errorf("%w: unsupported AI provider: %s", common.ErrInvalidConfig, provider)
	}

	return config, nil
}

// ChatHistory returns the number of turns sent with each chat request.
func ChatHistory() int {
	if n := viper.GetInt("chat.history"); n > 0 {
		return n
	}
	return DefaultChatHistory
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
