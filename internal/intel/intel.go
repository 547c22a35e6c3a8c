// Package intel provides the oracle's two external lookups: a market-data
// snapshot and a market-intelligence search.
package intel

import "context"

// DataProvider fetches a textual market snapshot for a symbol: current
// price, technical levels, and context the reasoning pass can quote.
type DataProvider interface {
	MarketSnapshot(ctx context.Context, symbol string) (string, error)
	Name() string
}

// Searcher answers a free-text market-intelligence query for a symbol.
type Searcher interface {
	Search(ctx context.Context, query, symbol string) (string, error)
}
