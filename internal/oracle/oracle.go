// Package oracle answers market questions for a symbol: a reasoning LLM
// pass over a market-data snapshot and a market-intelligence search.
package oracle

import "context"

// Oracle is the capability the cache coordinator and the HTTP surface
// consume. One method per analysis kind; all calls block for the full
// external round trip and carry no internal retry.
type Oracle interface {
	Trend(ctx context.Context, symbol string) (string, error)
	LowerLimit(ctx context.Context, symbol string) (string, error)
	UpperLimit(ctx context.Context, symbol string) (string, error)
	General(ctx context.Context, symbol, query string) (string, error)
}
