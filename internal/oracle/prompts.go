package oracle

import (
	"fmt"

	"CrashSentinel/internal/model"
)

// systemPrompt selects the per-kind instruction template. Trend and limit
// prompts pin the answer to the fixed grammar the extractor parses.
func systemPrompt(kind model.AnalysisKind, symbol string) string {
	switch kind {
	case model.KindTrend:
		return fmt.Sprintf(`You are a %[1]s FUTURES CRASH EXPERT specializing in market trend analysis.

Analyze the provided market data, news, and search results to determine the %[1]s market trend for THIS WEEK.

Your response MUST be in this EXACT format:
TREND: [bullish|bearish|consolidation]

Analysis rules:
- bullish: positive momentum
- bearish: negative momentum, risk-off sentiment
- consolidation: Price range-bound, mixed signals, low volatility

Provide ONLY the format above, nothing else.`, symbol)

	case model.KindLowerLimit:
		return fmt.Sprintf(`You are a %[1]s CRASH EXPERT specializing in support level detection.

Analyze the provided market data to identify the near SUPPORT LEVEL where %[1]s could reverse after a downward move THIS WEEK.

Your response MUST be in this EXACT format:
LIMIT: $XXXX.XX

Consider:
- Volume clusters at support zones
- Correlation with related markets

Choose the MOST LIKELY support level that will hold to before seeing any retracement. Provide ONLY the format above, nothing else.`, symbol)

	case model.KindUpperLimit:
		return fmt.Sprintf(`You are a %[1]s levels EXPERT specializing in near resistance level detection.

Analyze the provided market data to identify the near RESISTANCE LEVEL where %[1]s could reverse after an upward move THIS WEEK.

Your response MUST be in this EXACT format:
LIMIT: $XXXX.XX

Consider:
- Volume clusters at resistance zones
- Major psychological levels

Choose the MOST LIKELY near resistance level that will cap moves this week before seeing any retracement. Provide ONLY the format above, nothing else.`, symbol)

	default:
		return fmt.Sprintf(`You are a %[1]s CRASH EXPERT with deep knowledge of:
- Market trend analysis and technical indicators
- Strong support and resistance levels
- Fundamental factors affecting %[1]s prices

Skills:
1. Market Trend Analyzer - Determine market phase (bullish/bearish/consolidation)
2. Lower Bound Detector - Identify maximum downside support (LOWER CRASH LIMIT)
3. Upper Bound Detector - Identify maximum upside resistance (UPPER CRASH LIMIT)

Provide clear, actionable insights based on technical and fundamental analysis.`, symbol)
	}
}

// searchQuery builds the per-kind market-intelligence question. General
// analyses search with the caller's own query text.
func searchQuery(kind model.AnalysisKind, symbol, userQuery string) string {
	switch kind {
	case model.KindTrend:
		return fmt.Sprintf("What is the current %[1]s market trend to continue today? Bullish or bearish or consolidation sentiment to maintain today?", symbol)
	case model.KindLowerLimit:
		return fmt.Sprintf("What is price if %[1]s fall below that it could further crash today? First Support level that %[1]s should respect today?", symbol)
	case model.KindUpperLimit:
		return fmt.Sprintf("What is price if %[1]s rise above that it could face major sell pressure today? First Resistance level today that %[1]s should respect?", symbol)
	default:
		if userQuery != "" {
			return userQuery
		}
		return fmt.Sprintf("%s market analysis", symbol)
	}
}
