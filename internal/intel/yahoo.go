package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/piquette/finance-go/quote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CrashSentinel/internal/indicator"
	"CrashSentinel/internal/model"
)

// Yahoo implements DataProvider from public Yahoo Finance data. It is the
// fallback when no Perplexity key is configured: the snapshot is assembled
// locally from a spot quote, daily bars, and computed indicators instead of
// a live search answer.
type Yahoo struct {
	client    *http.Client
	symbolMap map[string]string // maps trading symbols to Yahoo tickers
	logger    zerolog.Logger
}

// NewYahoo creates a Yahoo Finance data provider.
func NewYahoo(timeout time.Duration) *Yahoo {
	return &Yahoo{
		client: &http.Client{Timeout: timeout},
		symbolMap: map[string]string{
			"GOLDUSD": "GC=F",
			"XAUUSD":  "GC=F",
			"EURUSD":  "EURUSD=X",
			"GBPUSD":  "GBPUSD=X",
			"BTCUSD":  "BTC-USD",
			"ETHUSD":  "ETH-USD",
			"SPX500":  "^GSPC",
		},
		logger: log.With().Str("component", "yahoo").Logger(),
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) yahooSymbol(symbol string) string {
	if mapped, ok := y.symbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// MarketSnapshot builds a factual snapshot paragraph: spot price, 30-day
// range, 200-day MA, 14-day RSI, and volume trend. These are the same data
// points the search provider is asked for.
func (y *Yahoo) MarketSnapshot(ctx context.Context, symbol string) (string, error) {
	ticker := y.yahooSymbol(symbol)

	bars, err := y.fetchDailyBars(ctx, ticker, 365)
	if err != nil {
		return "", err
	}
	if len(bars) == 0 {
		return "", fmt.Errorf("yahoo: no bars for %s", ticker)
	}

	price := bars[len(bars)-1].Close
	if q, err := quote.Get(ticker); err == nil && q != nil && q.RegularMarketPrice > 0 {
		price = q.RegularMarketPrice
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s market snapshot (source: Yahoo Finance)\n", symbol)
	fmt.Fprintf(&sb, "Current price: %.2f\n", price)

	if high, low, err := indicator.Range(bars, 22); err == nil {
		fmt.Fprintf(&sb, "30-day range: %.2f - %.2f\n", low, high)
	}
	if ma, err := indicator.SMA(bars, 200); err == nil {
		fmt.Fprintf(&sb, "200-day moving average: %.2f\n", ma)
	}
	if rsi, err := indicator.RSI(bars, 14); err == nil {
		fmt.Fprintf(&sb, "14-day RSI: %.1f\n", rsi)
	}
	fmt.Fprintf(&sb, "Volume trend: %s\n", indicator.VolumeTrend(bars))

	y.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("snapshot built")
	return sb.String(), nil
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (y *Yahoo) fetchDailyBars(ctx context.Context, ticker string, days int) ([]model.Bar, error) {
	rng := "2y"
	if days <= 30 {
		rng = "1mo"
	} else if days <= 90 {
		rng = "3mo"
	} else if days <= 180 {
		rng = "6mo"
	} else if days <= 365 {
		rng = "1y"
	}

	u := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=%s",
		url.PathEscape(ticker), rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	q := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := toFloat(q.Open[i])
		h := toFloat(q.High[i])
		l := toFloat(q.Low[i])
		c := toFloat(q.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(q.Volume[i]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}
