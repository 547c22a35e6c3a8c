package refresher

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"CrashSentinel/internal/cache"
	"CrashSentinel/internal/model"
	"CrashSentinel/internal/recorder"
)

type fakeOracle struct {
	mu        sync.Mutex
	refreshed map[string]int // symbol -> refresh count (trend calls)
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{refreshed: make(map[string]int)}
}

func (f *fakeOracle) Trend(_ context.Context, symbol string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed[symbol]++
	return "TREND: consolidation", nil
}

func (f *fakeOracle) LowerLimit(_ context.Context, _ string) (string, error) {
	return "LIMIT: $2300.00", nil
}

func (f *fakeOracle) UpperLimit(_ context.Context, _ string) (string, error) {
	return "LIMIT: $2400.00", nil
}

func (f *fakeOracle) General(_ context.Context, symbol, _ string) (string, error) {
	return "answer for " + symbol, nil
}

func (f *fakeOracle) refreshCount(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshed[symbol]
}

func testRefresher(t *testing.T) (*Refresher, *cache.Store, *fakeOracle) {
	t.Helper()
	store := cache.NewStore(filepath.Join(t.TempDir(), "cache.json"))
	orc := newFakeOracle()
	coord := cache.NewCoordinator(store, orc, recorder.NewNoopRecorder())
	return New(coord, 0, 0), store, orc
}

func record(symbol string, age time.Duration) *model.AnalysisRecord {
	return &model.AnalysisRecord{
		Timestamp:  time.Now().Add(-age).Format(model.TimestampLayout),
		Symbol:     symbol,
		Trend:      "bullish",
		LowerLimit: "$2300.00",
		UpperLimit: "$2400.00",
	}
}

func TestWarmUpEmptyCache(t *testing.T) {
	r, _, orc := testRefresher(t)

	r.warmUp(context.Background())

	if got := orc.refreshCount(model.DefaultSymbol); got != 1 {
		t.Errorf("warm-up on empty cache must refresh %s once, got %d", model.DefaultSymbol, got)
	}
}

func TestWarmUpRefreshesOnlyInvalidSymbols(t *testing.T) {
	r, store, orc := testRefresher(t)

	if err := store.UpsertSymbol("GOLDUSD", record("GOLDUSD", 5*time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertSymbol("EURUSD", record("EURUSD", 3*time.Hour)); err != nil {
		t.Fatal(err)
	}

	r.warmUp(context.Background())

	if got := orc.refreshCount("GOLDUSD"); got != 0 {
		t.Errorf("warm-up refreshed a still-valid symbol %d times", got)
	}
	if got := orc.refreshCount("EURUSD"); got != 1 {
		t.Errorf("warm-up must refresh the stale symbol once, got %d", got)
	}
}

func TestSweepRefreshesAllWhenAnyStale(t *testing.T) {
	r, store, orc := testRefresher(t)

	if err := store.UpsertSymbol("GOLDUSD", record("GOLDUSD", 5*time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertSymbol("EURUSD", record("EURUSD", 2*time.Hour)); err != nil {
		t.Fatal(err)
	}

	if err := r.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	// One stale symbol triggers a full sweep, fresh symbols included.
	if got := orc.refreshCount("GOLDUSD"); got != 1 {
		t.Errorf("fresh symbol refreshed %d times, want 1 (full-sweep policy)", got)
	}
	if got := orc.refreshCount("EURUSD"); got != 1 {
		t.Errorf("stale symbol refreshed %d times, want 1", got)
	}
}

func TestSweepSkipsWhenAllValid(t *testing.T) {
	r, store, orc := testRefresher(t)

	if err := store.UpsertSymbol("GOLDUSD", record("GOLDUSD", time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertSymbol("EURUSD", record("EURUSD", 30*time.Minute)); err != nil {
		t.Fatal(err)
	}

	if err := r.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if got := orc.refreshCount("GOLDUSD") + orc.refreshCount("EURUSD"); got != 0 {
		t.Errorf("all-valid sweep must skip, got %d refreshes", got)
	}
}

func TestSweepEmptyCacheDefaultsToDefaultSymbol(t *testing.T) {
	r, _, orc := testRefresher(t)

	if err := r.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := orc.refreshCount(model.DefaultSymbol); got != 1 {
		t.Errorf("empty-cache sweep must refresh %s, got %d", model.DefaultSymbol, got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := cache.NewStore(filepath.Join(t.TempDir(), "cache.json"))
	// Seed a fresh record so warm-up and ticks are no-ops.
	if err := store.UpsertSymbol("GOLDUSD", record("GOLDUSD", time.Minute)); err != nil {
		t.Fatal(err)
	}
	coord := cache.NewCoordinator(store, newFakeOracle(), recorder.NewNoopRecorder())
	r := New(coord, 10*time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
