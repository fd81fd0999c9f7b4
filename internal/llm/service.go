// -----------------------------------------------------------------------
// Claude Service - web-search-grounded queries via the Anthropic API
// -----------------------------------------------------------------------

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipodigest/internal/common"
)

const defaultMaxWebSearches = 8

// Citation is a web source the model consulted while answering.
type Citation struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Response holds the text and citations of a completed model query.
type Response struct {
	Text      string
	Citations []Citation
}

// Service wraps the Anthropic client with web search enabled and retry
// handling suitable for a batch job.
type Service struct {
	client    anthropic.Client
	logger    arbor.ILogger
	model     string
	timeout   time.Duration
	maxTokens int
	retry     *RetryPolicy
}

// NewService creates the Claude query service from configuration.
func NewService(config *common.LLMConfig, logger arbor.ILogger) (*Service, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY or llm.api_key in config)")
	}

	model := config.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 16384
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	service := &Service{
		client:    client,
		logger:    logger,
		model:     model,
		timeout:   timeout,
		maxTokens: maxTokens,
		retry:     NewRetryPolicy(),
	}

	logger.Debug().
		Str("model", model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude query service initialized")

	return service, nil
}

// Query executes a single-prompt completion with the web search tool enabled.
// Transient failures are retried with exponential backoff; authentication and
// billing failures abort immediately with a FatalError.
func (s *Service) Query(ctx context.Context, prompt string) (*Response, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("prompt_length", len(prompt)).
		Msg("Starting Claude web search query")

	var response *Response
	err := s.retry.Execute(timeoutCtx, s.logger, func() error {
		resp, err := s.generate(timeoutCtx, prompt)
		if err != nil {
			return err
		}
		response = resp
		return nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("Claude query failed")
		return nil, fmt.Errorf("claude query failed: %w", err)
	}

	s.logger.Debug().
		Int("response_length", len(response.Text)).
		Int("citation_count", len(response.Citations)).
		Dur("duration", time.Since(startTime)).
		Msg("Claude query completed")

	return response, nil
}

func (s *Service) generate(ctx context.Context, prompt string) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools: []anthropic.ToolUnionParam{
			{
				OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
					MaxUses: anthropic.Int(defaultMaxWebSearches),
				},
			},
		},
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	var citations []Citation
	seen := make(map[string]bool)
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
			for _, c := range variant.Citations {
				if c.URL == "" || seen[c.URL] {
					continue
				}
				seen[c.URL] = true
				citations = append(citations, Citation{
					Title:   c.Title,
					URL:     c.URL,
					Snippet: c.CitedText,
				})
			}
		}
	}

	if text.Len() == 0 {
		return nil, fmt.Errorf("no text generated from Claude API")
	}

	return &Response{Text: text.String(), Citations: citations}, nil
}
