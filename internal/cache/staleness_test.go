package cache

import (
	"testing"
	"time"

	"CrashSentinel/internal/model"
)

func TestIsValid(t *testing.T) {
	now := time.Now()
	stamp := func(age time.Duration) string {
		return now.Add(-age).Format(model.TimestampLayout)
	}

	tests := []struct {
		name string
		rec  *model.AnalysisRecord
		want bool
	}{
		{"fresh record", &model.AnalysisRecord{Timestamp: stamp(5 * time.Minute)}, true},
		{"just under the boundary", &model.AnalysisRecord{Timestamp: stamp(59*time.Minute + 59*time.Second)}, true},
		{"exactly one hour is stale", &model.AnalysisRecord{Timestamp: stamp(time.Hour)}, false},
		{"two hours old", &model.AnalysisRecord{Timestamp: stamp(2 * time.Hour)}, false},
		{"absent record", nil, false},
		{"empty timestamp", &model.AnalysisRecord{}, false},
		{"unparsable timestamp", &model.AnalysisRecord{Timestamp: "yesterday-ish"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.rec, now); got != tt.want {
				t.Errorf("IsValid = %v, want %v", got, tt.want)
			}
		})
	}
}
