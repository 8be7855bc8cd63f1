package main

import (
	"fmt"

	"github.com/7610venki/vehicle-data-mapper/internal/config"
	"github.com/7610venki/vehicle-data-mapper/internal/llm"
)

// createProvider creates a reasoning provider based on configuration.
// This function is shared by the commands that need LLM functionality.
func createProvider() (llm.Provider, error) {
	cfg, err := config.LoadLLMConfig()
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	return provider, nil
}
