// Package extract pulls structured fields out of raw oracle answers.
//
// The oracle is instructed to answer in a fixed grammar (a line with a
// TREND: or LIMIT: marker). A missing marker is a normal outcome, not an
// error: extraction degrades to the documented sentinel value.
package extract

import (
	"strings"

	"CrashSentinel/internal/model"
)

const (
	trendMarker = "TREND:"
	limitMarker = "LIMIT:"
)

// Trend returns the lower-cased first token after the first TREND: marker,
// or model.TrendUnknown when no line carries the marker.
func Trend(raw string) string {
	tok, ok := tokenAfter(raw, trendMarker)
	if !ok {
		return model.TrendUnknown
	}
	return strings.ToLower(tok)
}

// Limit returns the first token after the first LIMIT: marker with its
// original case and format preserved (so "$1234.56" stays intact), or
// model.LimitNA when no line carries the marker.
func Limit(raw string) string {
	tok, ok := tokenAfter(raw, limitMarker)
	if !ok {
		return model.LimitNA
	}
	return tok
}

// Field dispatches on the analysis kind. General answers are free-form and
// pass through untouched.
func Field(kind model.AnalysisKind, raw string) string {
	switch kind {
	case model.KindTrend:
		return Trend(raw)
	case model.KindLowerLimit, model.KindUpperLimit:
		return Limit(raw)
	default:
		return raw
	}
}

func tokenAfter(raw, marker string) (string, bool) {
	for _, line := range strings.Split(raw, "\n") {
		idx := strings.Index(line, marker)
		if idx < 0 {
			continue
		}
		fields := strings.Fields(line[idx+len(marker):])
		if len(fields) == 0 {
			return "", false
		}
		return fields[0], true
	}
	return "", false
}
