package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CrashSentinel/internal/extract"
	"CrashSentinel/internal/model"
	"CrashSentinel/internal/oracle"
	"CrashSentinel/internal/recorder"
)

// Coordinator is the read-through entry point over the store. It owns the
// refresh decision: valid records are returned as-is, everything else
// triggers a full three-call oracle refresh.
//
// Concurrent refreshes for the same symbol are not deduplicated; both run
// the oracle and the last persisted record wins.
type Coordinator struct {
	store    *Store
	oracle   oracle.Oracle
	recorder recorder.Recorder
	logger   zerolog.Logger
}

// NewCoordinator wires the coordinator to its collaborators.
func NewCoordinator(store *Store, orc oracle.Oracle, rec recorder.Recorder) *Coordinator {
	return &Coordinator{
		store:    store,
		oracle:   orc,
		recorder: rec,
		logger:   log.With().Str("component", "cache").Logger(),
	}
}

// GetOrRefresh returns the symbol's bundle from the cache, refreshing it
// first when absent or stale.
func (c *Coordinator) GetOrRefresh(ctx context.Context, symbol string) (*model.AnalysisRecord, error) {
	symbol = model.NormalizeSymbol(symbol)

	rec, _ := c.store.GetSymbol(symbol)
	if IsValid(rec, time.Now()) {
		if ts, ok := rec.Time(); ok {
			c.logger.Info().Str("symbol", symbol).Str("age", humanize.Time(ts)).Msg("cache hit")
		}
		return rec, nil
	}

	c.logger.Info().Str("symbol", symbol).Msg("cache miss or stale, refreshing")
	return c.Refresh(ctx, symbol, "read")
}

// Refresh runs all three analyses for the symbol, assembles a new record,
// and writes it through the store. A failed oracle call degrades that one
// field to its sentinel, with the error text kept as the raw response; a
// failed persist is logged and the fresh record is still returned.
//
// The only error Refresh itself returns is context cancellation.
func (c *Coordinator) Refresh(ctx context.Context, symbol, trigger string) (*model.AnalysisRecord, error) {
	symbol = model.NormalizeSymbol(symbol)
	start := time.Now()
	c.logger.Info().Str("symbol", symbol).Str("trigger", trigger).Msg("refresh started")

	evt := recorder.RefreshEvent{
		ID:      uuid.NewString(),
		Symbol:  symbol,
		Trigger: trigger,
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trendRaw, err := c.oracle.Trend(ctx, symbol)
	trend := extract.Trend(trendRaw)
	if err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Msg("trend analysis failed")
		trendRaw = fmt.Sprintf("analysis failed: %v", err)
		trend = model.TrendUnknown
		evt.TrendFailed = true
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lowerRaw, err := c.oracle.LowerLimit(ctx, symbol)
	lower := extract.Limit(lowerRaw)
	if err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Msg("lower limit analysis failed")
		lowerRaw = fmt.Sprintf("analysis failed: %v", err)
		lower = model.LimitNA
		evt.LowerFailed = true
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	upperRaw, err := c.oracle.UpperLimit(ctx, symbol)
	upper := extract.Limit(upperRaw)
	if err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Msg("upper limit analysis failed")
		upperRaw = fmt.Sprintf("analysis failed: %v", err)
		upper = model.LimitNA
		evt.UpperFailed = true
	}

	rec := &model.AnalysisRecord{
		Timestamp:  time.Now().Format(model.TimestampLayout),
		Symbol:     symbol,
		Trend:      trend,
		LowerLimit: lower,
		UpperLimit: upper,
		RawResponses: model.RawResponses{
			Trend:      trendRaw,
			LowerLimit: lowerRaw,
			UpperLimit: upperRaw,
		},
	}

	// Best-effort caching: a persist failure still returns the record.
	if err := c.store.UpsertSymbol(symbol, rec); err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Msg("persist refreshed record failed")
	}

	evt.Trend = trend
	evt.LowerLimit = lower
	evt.UpperLimit = upper
	evt.Duration = time.Since(start)
	if err := c.recorder.RecordRefresh(&evt); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("record refresh event failed")
	}

	c.logger.Info().
		Str("symbol", symbol).
		Str("trend", trend).
		Str("lower", lower).
		Str("upper", upper).
		Dur("took", evt.Duration).
		Msg("refresh complete")
	return rec, nil
}

// AddSymbol begins tracking a symbol with an unconditional refresh,
// regardless of any existing record's staleness.
func (c *Coordinator) AddSymbol(ctx context.Context, symbol string) (*model.AnalysisRecord, error) {
	return c.Refresh(ctx, symbol, "addSymbol")
}

// ListAll returns the whole cache document as stored, not filtered by
// validity.
func (c *Coordinator) ListAll() *model.CacheDocument {
	return c.store.Load()
}

// Store exposes the underlying store for the background refresher's
// document scans.
func (c *Coordinator) Store() *Store {
	return c.store
}
