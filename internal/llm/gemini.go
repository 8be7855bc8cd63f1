package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/7610venki/vehicle-data-mapper/internal/common"
	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// geminiProvider implements the Provider interface for the Gemini API,
// including web-grounded matching.
type geminiProvider struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// newGeminiProvider creates a new Gemini API provider.
func newGeminiProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	mdl := cfg.Model
	if mdl == "" {
		mdl = "gemini-2.0-flash"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 15
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &geminiProvider{
		apiKey:      cfg.APIKey,
		model:       mdl,
		baseURL:     geminiEndpoint,
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

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) SupportsWebSearch() bool { return true }

// SemanticCompareBatch asks Gemini to pick the best candidate per task.
func (p *geminiProvider) SemanticCompareBatch(ctx context.Context, tasks []SemanticTask) ([]SemanticResult, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	text, _, err := p.generate(ctx, buildSemanticPrompt(tasks), false)
	if err != nil {
		return nil, err
	}

	items, err := parseObjectArray[semanticItem](text)
	if err != nil {
		return nil, err
	}
	return toSemanticResults(items), nil
}

// FindBestMatchBatch asks Gemini to match each task against the reference
// list, grounded in web search results.
func (p *geminiProvider) FindBestMatchBatch(ctx context.Context, tasks []MatchTask, refs []ReferenceItem) ([]MatchAnswer, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	text, sources, err := p.generate(ctx, buildMatchPrompt(tasks, refs, true), true)
	if err != nil {
		return nil, err
	}

	items, err := parseObjectArray[matchItem](text)
	if err != nil {
		return nil, err
	}
	return toMatchAnswers(items, sources), nil
}

// GenerateRules asks Gemini to propose generalized mapping rules.
func (p *geminiProvider) GenerateRules(ctx context.Context, examples []model.RuleExample) ([]model.LearnedRule, error) {
	if len(examples) == 0 {
		return nil, nil
	}

	text, _, err := p.generate(ctx, buildRulesPrompt(examples), false)
	if err != nil {
		return nil, err
	}

	return parseObjectArray[model.LearnedRule](text)
}

// generate performs one generateContent call and returns the response text
// plus any web grounding sources.
func (p *geminiProvider) generate(ctx context.Context, prompt string, webSearch bool) (string, []model.Source, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}

	requestBody := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     p.temperature,
			"maxOutputTokens": p.maxTokens,
		},
	}
	if webSearch {
		requestBody["tools"] = []map[string]any{{"google_search": map[string]any{}}}
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", nil, classifyTransportError("gemini", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", nil, classifyStatusError("gemini", resp.StatusCode, body)
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", nil, fmt.Errorf("%w: no content in response", common.ErrMalformedResponse)
	}

	candidate := response.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}

	var sources []model.Source
	for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
		if chunk.Web.URI != "" {
			sources = append(sources, model.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}

	return text.String(), sources, nil
}

// geminiResponse represents the Gemini API response structure.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		GroundingMetadata struct {
			GroundingChunks []struct {
				Web struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// classifyStatusError maps an HTTP error status to a retryable or fatal
// provider error. Rate limits and server-busy responses retry; client
// errors fail immediately.
func classifyStatusError(provider string, status int, body []byte) error {
	msg := fmt.Errorf("%s API error (status %d): %s", provider, status, string(body))
	switch {
	case status == http.StatusTooManyRequests:
		return &common.RetryableError{Err: fmt.Errorf("%w: %v", common.ErrRateLimit, msg), Retryable: true}
	case status == http.StatusServiceUnavailable || status >= 500:
		return &common.RetryableError{Err: msg, Retryable: true}
	default:
		return &common.RetryableError{Err: msg, Retryable: false}
	}
}

// classifyTransportError marks timeouts as retryable.
func classifyTransportError(provider string, err error) error {
	wrapped := fmt.Errorf("%s request failed: %w", provider, err)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &common.RetryableError{Err: wrapped, Retryable: true}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &common.RetryableError{Err: wrapped, Retryable: true}
	}
	return wrapped
}
