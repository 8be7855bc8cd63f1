package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/7610venki/vehicle-data-mapper/internal/common"
	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

const groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"

// groqProvider implements the Provider interface against Groq's
// OpenAI-compatible chat completions API. It has no web-search capability,
// so open-ended match tasks receive explicit unsupported answers.
type groqProvider struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// newGroqProvider creates a new Groq API provider.
func newGroqProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}

	mdl := cfg.Model
	if mdl == "" {
		mdl = "llama-3.3-70b-versatile"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &groqProvider{
		apiKey:      cfg.APIKey,
		model:       mdl,
		baseURL:     groqEndpoint,
		temperature: temperature,
		maxTokens:   maxTokens,
		limiter:     rate.NewLimiter(rate.Limit(rpm)/60, 1),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

func (p *groqProvider) Name() string { return "groq" }

func (p *groqProvider) SupportsWebSearch() bool { return false }

// SemanticCompareBatch asks Groq to pick the best candidate per task.
func (p *groqProvider) SemanticCompareBatch(ctx context.Context, tasks []SemanticTask) ([]SemanticResult, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	text, err := p.complete(ctx, buildSemanticPrompt(tasks))
	if err != nil {
		return nil, err
	}

	items, err := parseObjectArray[semanticItem](text)
	if err != nil {
		return nil, err
	}
	return toSemanticResults(items), nil
}

// FindBestMatchBatch reports every task as unsupported rather than
// guessing without external grounding.
func (p *groqProvider) FindBestMatchBatch(_ context.Context, tasks []MatchTask, _ []ReferenceItem) ([]MatchAnswer, error) {
	answers := make([]MatchAnswer, 0, len(tasks))
	for _, t := range tasks {
		answers = append(answers, MatchAnswer{
			RecordID:    t.RecordID,
			Reason:      "web search matching not supported by groq provider",
			Unsupported: true,
		})
	}
	return answers, nil
}

// GenerateRules asks Groq to propose generalized mapping rules.
func (p *groqProvider) GenerateRules(ctx context.Context, examples []model.RuleExample) ([]model.LearnedRule, error) {
	if len(examples) == 0 {
		return nil, nil
	}

	text, err := p.complete(ctx, buildRulesPrompt(examples))
	if err != nil {
		return nil, err
	}

	return parseObjectArray[model.LearnedRule](text)
}

func (p *groqProvider) complete(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	requestBody := map[string]any{
		"model":       p.model,
		"temperature": p.temperature,
		"max_tokens":  p.maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError("groq", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatusError("groq", resp.StatusCode, body)
	}

	var response groqResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", common.ErrMalformedResponse)
	}

	return response.Choices[0].Message.Content, nil
}

// groqResponse represents the OpenAI-compatible chat completion response.
type groqResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}
