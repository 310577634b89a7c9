// Package anthropic implements the ai.Provider interface against the
// Anthropic messages API over plain HTTP.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mlawrence/jobscout/internal/ai"
)

const (
	// APIBaseURL is the base URL for the Anthropic API
	APIBaseURL = "https://api.anthropic.com/v1/messages"

	// APIVersion is the Anthropic API version
	APIVersion = "2023-06-01"

	// DefaultModel is the default model to use
	DefaultModel = "claude-3-5-sonnet-20241022"

	// MaxPromptBytes caps resume/job text included in a prompt. Oversized
	// input is truncated, not rejected.
	MaxPromptBytes = 20000
)

// Config contains configuration for the Anthropic provider
type Config struct {
	APIKey         string
	Model          string
	ProviderConfig ai.ProviderConfig
}

// Provider implements ai.Provider using Anthropic's API.
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new Anthropic AI provider.
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.ProviderConfig.MaxRetries == 0 {
		config.ProviderConfig.MaxRetries = 3
	}
	if config.ProviderConfig.RetryBaseDelay == 0 {
		config.ProviderConfig.RetryBaseDelay = 1 * time.Second
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 60 * time.Second
	}

	return &Provider{
		config: config,
		client: &http.Client{Timeout: config.ProviderConfig.RequestTimeout},
		logger: logger,
	}, nil
}

func (p *Provider) MatchResume(ctx context.Context, params ai.MatchResumeParams) (*ai.MatchResult, error) {
	start := time.Now()

	prompt := matchResumePrompt(
		truncate(params.ResumeText, MaxPromptBytes),
		params.JobTitle,
		truncate(params.JobDescription, MaxPromptBytes),
	)

	text, usage, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result := &ai.MatchResult{Summary: text}
	// Best-effort JSON extraction; malformed output degrades to raw text.
	if extracted := extractJSON(text); extracted != "" {
		var parsed ai.MatchResult
		if json.Unmarshal([]byte(extracted), &parsed) == nil {
			result = &parsed
		}
	}
	usage.Duration = time.Since(start)
	result.Usage = usage
	return result, nil
}

func (p *Provider) InterviewQuestions(ctx context.Context, params ai.InterviewParams) ([]ai.Question, error) {
	count := params.Count
	if count <= 0 || count > 10 {
		count = 10
	}

	prompt := interviewPrompt(params.JobTitle, truncate(params.JobDescription, MaxPromptBytes), count)

	text, _, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var questions []ai.Question
	if extracted := extractJSON(text); extracted != "" {
		if json.Unmarshal([]byte(extracted), &questions) == nil && len(questions) > 0 {
			return questions, nil
		}
	}

	// Fall back to one question per non-empty line.
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			questions = append(questions, ai.Question{Text: line})
		}
		if len(questions) == count {
			break
		}
	}
	return questions, nil
}

// =============================================================================
// API plumbing
// =============================================================================

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// complete sends one prompt and returns the text completion. Rate limits
// and server errors are retried with exponential backoff.
func (p *Provider) complete(ctx context.Context, prompt string) (string, ai.UsageInfo, error) {
	body, err := json.Marshal(apiRequest{
		Model:     p.config.Model,
		MaxTokens: 2048,
		Messages:  []apiMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", ai.UsageInfo{}, fmt.Errorf("marshal request: %w", err)
	}

	var resp apiResponse
	backoff := retry.WithMaxRetries(
		uint64(p.config.ProviderConfig.MaxRetries),
		retry.NewExponential(p.config.ProviderConfig.RetryBaseDelay),
	)

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, APIBaseURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Api-Key", p.config.APIKey)
		req.Header.Set("Anthropic-Version", APIVersion)

		httpResp, err := p.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %v", ai.ErrUnavailable, err))
		}
		defer httpResp.Body.Close()

		switch {
		case httpResp.StatusCode == http.StatusTooManyRequests:
			return retry.RetryableError(ai.ErrRateLimited)
		case httpResp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("%w: status %d", ai.ErrUnavailable, httpResp.StatusCode))
		case httpResp.StatusCode != http.StatusOK:
			respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
			return fmt.Errorf("anthropic API status %d: %s", httpResp.StatusCode, respBody)
		}

		return json.NewDecoder(httpResp.Body).Decode(&resp)
	})
	if err != nil {
		return "", ai.UsageInfo{}, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	usage := ai.UsageInfo{
		Model:        p.config.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}

	p.logger.Debug("completion finished",
		"model", usage.Model,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
	)
	return text.String(), usage, nil
}

// extractJSON returns the first top-level JSON value in the text, or "".
func extractJSON(text string) string {
	start := strings.IndexAny(text, "[{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndexAny(text, "]}")
	if end <= start {
		return ""
	}
	return text[start : end+1]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
