package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a reasoning provider based on the provided
// configuration.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return newGeminiProvider(cfg)
	case "groq":
		return newGroqProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
