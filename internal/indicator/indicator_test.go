package indicator

import (
	"math"
	"testing"

	"CrashSentinel/internal/model"
)

func barsFromCloses(closes ...float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return bars
}

func TestSMA(t *testing.T) {
	bars := barsFromCloses(1, 2, 3, 4, 5)
	got, err := SMA(bars, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3 {
		t.Errorf("SMA = %.2f, want 3.00", got)
	}

	got, err = SMA(bars, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4.5 {
		t.Errorf("SMA last 2 = %.2f, want 4.50", got)
	}

	if _, err := SMA(bars, 10); err == nil {
		t.Error("expected error for insufficient data")
	}
	if _, err := SMA(bars, 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestRSI(t *testing.T) {
	// Monotonic rise: no losses, RSI must be 100.
	up := barsFromCloses(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16)
	got, err := RSI(up, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Errorf("RSI of rising series = %.2f, want 100", got)
	}

	// Insufficient data falls back to the neutral default.
	got, err = RSI(barsFromCloses(1, 2, 3), 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 50 {
		t.Errorf("RSI with insufficient data = %.2f, want 50", got)
	}

	// Alternating series lands strictly between the extremes.
	alt := barsFromCloses(10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11)
	got, err = RSI(alt, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got <= 0 || got >= 100 || math.IsNaN(got) {
		t.Errorf("RSI of alternating series = %.2f, want in (0, 100)", got)
	}
}

func TestRange(t *testing.T) {
	bars := barsFromCloses(10, 20, 15, 30, 25)
	high, low, err := Range(bars, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if high != 31 || low != 14 {
		t.Errorf("Range(3) = (%.0f, %.0f), want (31, 14)", high, low)
	}

	// Lookback longer than the series covers everything.
	high, low, err = Range(bars, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if high != 31 || low != 9 {
		t.Errorf("Range(100) = (%.0f, %.0f), want (31, 9)", high, low)
	}

	if _, _, err := Range(nil, 5); err == nil {
		t.Error("expected error for empty bars")
	}
}

func TestVolumeTrend(t *testing.T) {
	bars := barsFromCloses(1, 2, 3)
	bars[2].Volume = 5000
	if got := VolumeTrend(bars); got != "higher than average" {
		t.Errorf("VolumeTrend = %q", got)
	}
	bars[2].Volume = 10
	if got := VolumeTrend(bars); got != "lower than average" {
		t.Errorf("VolumeTrend = %q", got)
	}
	if got := VolumeTrend(bars[:1]); got != "unknown" {
		t.Errorf("VolumeTrend single bar = %q", got)
	}
}
