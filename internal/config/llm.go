package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/7610venki/vehicle-data-mapper/internal/llm"
)

// LoadLLMConfig builds the reasoning provider configuration. It follows
// this precedence:
// 1. Viper configuration (from config file or VMAP_ env vars)
// 2. Direct environment variables (GEMINI_API_KEY, GROQ_API_KEY)
// 3. Provider defaults
func LoadLLMConfig() (llm.Config, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = "gemini"
	}

	cfg := llm.Config{
		Provider:          provider,
		Model:             viper.GetString("llm.model"),
		Temperature:       viper.GetFloat64("llm.temperature"),
		MaxTokens:         viper.GetInt("llm.max_tokens"),
		RequestsPerMinute: viper.GetInt("llm.rate_limit"),
		Timeout:           viper.GetDuration("llm.timeout"),
	}
	switch provider {
	case "gemini":
		apiKey := viper.GetString("llm.gemini_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return llm.Config{}, fmt.Errorf("gemini API key not found in config or GEMINI_API_KEY environment variable")
		}
		cfg.APIKey = apiKey

	case "groq":
		apiKey := viper.GetString("llm.groq_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("GROQ_API_KEY")
		}
		if apiKey == "" {
			return llm.Config{}, fmt.Errorf("groq API key not found in config or GROQ_API_KEY environment variable")
		}
		cfg.APIKey = apiKey

	default:
		return llm.Config{}, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	return cfg, nil
}
