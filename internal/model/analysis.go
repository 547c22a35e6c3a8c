package model

import (
	"strings"
	"time"
)

// AnalysisKind selects the prompt template and extraction rule for one analysis.
type AnalysisKind string

const (
	KindTrend      AnalysisKind = "trend"
	KindLowerLimit AnalysisKind = "lower_limit"
	KindUpperLimit AnalysisKind = "upper_limit"
	KindGeneral    AnalysisKind = "general"
)

const (
	// DefaultSymbol is used whenever a request omits the symbol and as the
	// bootstrap symbol for an empty cache.
	DefaultSymbol = "GOLDUSD"

	// TrendUnknown is the trend value when no TREND: marker could be extracted.
	TrendUnknown = "unknown"

	// LimitNA is the limit value when no LIMIT: marker could be extracted.
	LimitNA = "N/A"
)

// TimestampLayout is the wire format for all persisted instants.
const TimestampLayout = time.RFC3339Nano

// NormalizeSymbol uppercases and trims a symbol identifier.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// RawResponses keeps the three raw oracle texts for audit. They are never
// parsed a second time.
type RawResponses struct {
	Trend      string `json:"trend"`
	LowerLimit string `json:"lowerLimit"`
	UpperLimit string `json:"upperLimit"`
}

// AnalysisRecord is one symbol's analysis bundle from a single refresh.
// A refresh always produces a whole new record; fields never mutate in place.
//
// Timestamp stays a string so that an unparsable value degrades only that
// record's staleness check, not the whole document decode.
type AnalysisRecord struct {
	Timestamp    string       `json:"timestamp"`
	Symbol       string       `json:"symbol"`
	Trend        string       `json:"trend"`
	LowerLimit   string       `json:"lowerLimit"`
	UpperLimit   string       `json:"upperLimit"`
	RawResponses RawResponses `json:"rawResponses"`
}

// Time parses the record timestamp. The zero time and false mean the
// timestamp is absent or unparsable.
func (r *AnalysisRecord) Time() (time.Time, bool) {
	if r == nil || r.Timestamp == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(TimestampLayout, r.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// CacheDocument is the persisted root: one record per tracked symbol plus
// the instant of the most recent write to the document.
type CacheDocument struct {
	LastUpdated string                     `json:"lastUpdated"`
	Symbols     map[string]*AnalysisRecord `json:"symbols"`
}

// NewCacheDocument returns an empty document ready for upserts.
func NewCacheDocument() *CacheDocument {
	return &CacheDocument{Symbols: make(map[string]*AnalysisRecord)}
}
