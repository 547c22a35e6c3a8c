// Package refresher keeps the symbol cache warm: a warm-up pass at process
// start and an hourly sweep over every tracked symbol.
package refresher

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CrashSentinel/internal/cache"
	"CrashSentinel/internal/model"
)

const (
	// DefaultInterval is the steady-state sweep period.
	DefaultInterval = time.Hour

	// DefaultCooldown is how long the loop waits after a failed sweep
	// before resuming.
	DefaultCooldown = time.Minute
)

// Refresher runs the warm-up and the periodic sweep loop. The loop never
// terminates on its own; only context cancellation stops it.
type Refresher struct {
	coord    *cache.Coordinator
	interval time.Duration
	cooldown time.Duration
	logger   zerolog.Logger
}

// New creates a refresher. Zero interval or cooldown fall back to the
// defaults.
func New(coord *cache.Coordinator, interval, cooldown time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Refresher{
		coord:    coord,
		interval: interval,
		cooldown: cooldown,
		logger:   log.With().Str("component", "refresher").Logger(),
	}
}

// Run executes the warm-up pass and then sweeps on a fixed ticker until the
// context is cancelled. The first sweep happens a full interval after
// start; a sweep error is logged and followed by a cooldown, never a loop
// exit.
func (r *Refresher) Run(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Msg("background refresher started")
	r.warmUp(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("background refresher stopped")
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				if ctx.Err() != nil {
					r.logger.Info().Msg("background refresher stopped")
					return
				}
				r.logger.Error().Err(err).Msg("sweep failed, cooling down")
				select {
				case <-ctx.Done():
					r.logger.Info().Msg("background refresher stopped")
					return
				case <-time.After(r.cooldown):
				}
			}
		}
	}
}

// warmUp refreshes the default symbol when nothing is tracked yet,
// otherwise refreshes only the tracked symbols whose records are no longer
// valid. Unlike the steady-state sweep, fresh symbols are left alone.
func (r *Refresher) warmUp(ctx context.Context) {
	doc := r.coord.Store().Load()
	if len(doc.Symbols) == 0 {
		r.logger.Info().Str("symbol", model.DefaultSymbol).Msg("empty cache, performing initial refresh")
		if _, err := r.coord.Refresh(ctx, model.DefaultSymbol, "warmup"); err != nil {
			r.logger.Error().Err(err).Msg("warm-up refresh failed")
		}
		return
	}

	now := time.Now()
	for _, symbol := range sortedSymbols(doc) {
		if cache.IsValid(doc.Symbols[symbol], now) {
			continue
		}
		r.logger.Info().Str("symbol", symbol).Msg("stale at startup, refreshing")
		if _, err := r.coord.Refresh(ctx, symbol, "warmup"); err != nil {
			r.logger.Error().Err(err).Str("symbol", symbol).Msg("warm-up refresh failed")
			return
		}
	}
}

// Sweep reloads the document and, if ANY tracked symbol is stale, refreshes
// every tracked symbol. When nothing is stale the cycle is skipped. An
// empty symbol set defaults to the default symbol.
func (r *Refresher) Sweep(ctx context.Context) error {
	doc := r.coord.Store().Load()

	symbols := sortedSymbols(doc)
	if len(symbols) == 0 {
		symbols = []string{model.DefaultSymbol}
	}

	now := time.Now()
	anyStale := false
	for _, symbol := range symbols {
		if !cache.IsValid(doc.Symbols[symbol], now) {
			anyStale = true
			break
		}
	}
	if !anyStale {
		r.logger.Info().Int("symbols", len(symbols)).Msg("sweep: all symbols still valid, skipping")
		return nil
	}

	r.logger.Info().Int("symbols", len(symbols)).Msg("sweep: stale symbol found, refreshing all")
	for _, symbol := range symbols {
		if _, err := r.coord.Refresh(ctx, symbol, "sweep"); err != nil {
			return err
		}
	}
	return nil
}

func sortedSymbols(doc *model.CacheDocument) []string {
	symbols := make([]string, 0, len(doc.Symbols))
	for s := range doc.Symbols {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
