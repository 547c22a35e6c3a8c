package oracle

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"CrashSentinel/internal/intel"
	"CrashSentinel/internal/model"
)

// Agent is the concrete Oracle: it gathers a market snapshot and a search
// answer, then runs one reasoning chat completion over both. Lookup
// failures are absorbed into the context block so a broken collaborator
// degrades the answer instead of failing it; only the reasoning call itself
// can error.
type Agent struct {
	client   *openai.Client
	model    string
	data     intel.DataProvider
	searcher intel.Searcher
	logger   zerolog.Logger
}

// NewAgent creates the oracle adapter. baseURL is optional (empty means the
// public OpenAI endpoint); searcher may be nil when no search provider is
// configured.
func NewAgent(apiKey, baseURL, llmModel string, timeout time.Duration, data intel.DataProvider, searcher intel.Searcher) *Agent {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Agent{
		client:   openai.NewClientWithConfig(cfg),
		model:    llmModel,
		data:     data,
		searcher: searcher,
		logger:   log.With().Str("component", "oracle").Logger(),
	}
}

func (a *Agent) Trend(ctx context.Context, symbol string) (string, error) {
	return a.analyze(ctx, model.KindTrend, symbol, "")
}

func (a *Agent) LowerLimit(ctx context.Context, symbol string) (string, error) {
	return a.analyze(ctx, model.KindLowerLimit, symbol, "")
}

func (a *Agent) UpperLimit(ctx context.Context, symbol string) (string, error) {
	return a.analyze(ctx, model.KindUpperLimit, symbol, "")
}

func (a *Agent) General(ctx context.Context, symbol, query string) (string, error) {
	return a.analyze(ctx, model.KindGeneral, symbol, query)
}

func (a *Agent) analyze(ctx context.Context, kind model.AnalysisKind, symbol, userQuery string) (string, error) {
	start := time.Now()

	marketData, err := a.data.MarketSnapshot(ctx, symbol)
	if err != nil {
		a.logger.Warn().Err(err).Str("symbol", symbol).Msg("market data lookup failed")
		marketData = fmt.Sprintf("market data unavailable: %v", err)
	}

	search := "N/A"
	if a.searcher != nil {
		search, err = a.searcher.Search(ctx, searchQuery(kind, symbol, userQuery), symbol)
		if err != nil {
			a.logger.Warn().Err(err).Str("symbol", symbol).Msg("market intelligence lookup failed")
			search = fmt.Sprintf("market intelligence unavailable: %v", err)
		}
	}

	contextBlock := fmt.Sprintf(`DATA GATHERED:

Market Data:
%s

Market Intelligence:
%s

Based on this data, provide your analysis.`, marketData, search)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(kind, symbol)},
			{Role: openai.ChatMessageRoleUser, Content: contextBlock},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm completion: empty choices")
	}

	a.logger.Info().
		Str("symbol", symbol).
		Str("kind", string(kind)).
		Dur("took", time.Since(start)).
		Msg("analysis complete")
	return resp.Choices[0].Message.Content, nil
}
