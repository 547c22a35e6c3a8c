package recorder

import "time"

// RefreshEvent records one cache refresh for a symbol: what triggered it,
// the extracted fields, and which oracle calls failed.
type RefreshEvent struct {
	ID          string // uuid
	Symbol      string
	Trigger     string // "warmup", "sweep", "read", "addSymbol"
	Trend       string
	LowerLimit  string
	UpperLimit  string
	TrendFailed bool
	LowerFailed bool
	UpperFailed bool
	Duration    time.Duration
}

// QueryEvent records one live /query call.
type QueryEvent struct {
	ID        string // uuid
	Symbol    string
	Query     string
	AnswerLen int
	Duration  time.Duration
}

// Recorder persists an audit trail of refreshes and live queries.
// Recording failures never affect the caller.
type Recorder interface {
	RecordRefresh(evt *RefreshEvent) error
	RecordQuery(evt *QueryEvent) error
	PruneBefore(t time.Time) (int64, error)
	Close() error
}
