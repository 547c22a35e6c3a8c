package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPerplexityBaseURL is the OpenAI-compatible API endpoint.
	DefaultPerplexityBaseURL = "https://api.perplexity.ai"

	// DefaultPerplexityModel is the online search model.
	DefaultPerplexityModel = "sonar-pro"
)

// Perplexity implements both DataProvider and Searcher against the
// Perplexity chat-completions API.
type Perplexity struct {
	apiKey  string
	baseURL string
	model   string
	client  *resty.Client
	logger  zerolog.Logger
}

// NewPerplexity creates a client. Empty baseURL and model fall back to the
// defaults above.
func NewPerplexity(apiKey, baseURL, model string, timeout time.Duration) *Perplexity {
	if baseURL == "" {
		baseURL = DefaultPerplexityBaseURL
	}
	if model == "" {
		model = DefaultPerplexityModel
	}
	client := resty.New()
	client.SetTimeout(timeout)

	return &Perplexity{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  client,
		logger:  log.With().Str("component", "perplexity").Logger(),
	}
}

func (p *Perplexity) Name() string { return "perplexity" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// MarketSnapshot asks the search model for the symbol's current price,
// support/resistance levels, volume trend, and sentiment.
func (p *Perplexity) MarketSnapshot(ctx context.Context, symbol string) (string, error) {
	query := fmt.Sprintf(`What is the current %[1]s price right now considering post/pre market hours? Provide:
1. Current price for %[1]s considering post/pre market hours.
2. Key support levels from where %[1]s can go down.
3. Key resistance levels from where %[1]s can face selling pressure.
4. Recent volume trend (higher/lower than average)
5. Overall market sentiment (bullish/bearish/consolidation) for active week.

Format the response as structured data with clear labels.`, symbol)

	return p.complete(ctx, symbol, query)
}

// Search answers a free-text market-intelligence query.
func (p *Perplexity) Search(ctx context.Context, query, symbol string) (string, error) {
	return p.complete(ctx, symbol, query)
}

func (p *Perplexity) complete(ctx context.Context, symbol, query string) (string, error) {
	system := fmt.Sprintf("You are a real-time financial data provider. Extract current %s market data and technical levels considering post/pre market hours. Provide precise numerical values. Keep the response concise, factual and latest.", symbol)

	req := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: query},
		},
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+p.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(p.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("perplexity request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("perplexity: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("perplexity decode: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("perplexity: empty choices")
	}

	p.logger.Debug().Str("symbol", symbol).Msg("perplexity lookup complete")
	return parsed.Choices[0].Message.Content, nil
}
