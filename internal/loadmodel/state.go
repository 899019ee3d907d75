package loadmodel

import (
	"time"

	"github.com/google/uuid"
)

// RequestResult is one worker's observation of a single HTTP request.
// The list of results for a test is append-only until completion.
type RequestResult struct {
	ResponseTimeMs float64   `json:"responseTimeMs"`
	Success        bool      `json:"success"`
	Status         *int      `json:"status,omitempty"`
	Error          string    `json:"error,omitempty"` // "timeout" or a raw transport message
	Timestamp      int64     `json:"timestamp"`       // wall-clock ms of request start
	StartedAt      time.Time `json:"-"`
}

// AggregatedMetrics is the running summary statistics computed over a
// test's request results. All latency values are ms, rounded to two
// decimals; percentages are 0-100, rounded to two decimals.
//
// RequestsPerSecond is computed against wall-clock elapsed time while
// the test is running, and against total elapsed time once the test
// completes — the two are intentionally different denominators (see
// SPEC_FULL.md §9, open question 2).
type AggregatedMetrics struct {
	Total                     int     `json:"total"`
	Successful                int     `json:"successful"`
	Failed                    int     `json:"failed"`
	ErrorRatePercentage       float64 `json:"errorRatePercentage"`
	RequestsPerSecond         float64 `json:"requestsPerSecond"`
	AvgResponseTime           float64 `json:"avgResponseTime"`
	MinResponseTime           float64 `json:"minResponseTime"`
	MaxResponseTime           float64 `json:"maxResponseTime"`
	P95ResponseTime           float64 `json:"p95ResponseTime"`
	P99ResponseTime           float64 `json:"p99ResponseTime"`
	TimeoutCount              int     `json:"timeoutCount"`
	TimeoutRatePercentage     float64 `json:"timeoutRatePercentage"`
}

// TimeSeriesPoint is a 1-second bucket of request outcomes, keyed by
// the wall-clock ms at which the bucket starts.
type TimeSeriesPoint struct {
	Time          int64   `json:"time"`
	ResponseTime  float64 `json:"responseTime"`
	ErrorRate     float64 `json:"errorRate"`
	SuccessCount  int     `json:"successCount"`
	FailCount     int     `json:"failCount"`
}

// Status is a test's lifecycle state.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// LegacyVerdict is the error-rate-band verdict retained for callers
// that predate threshold verdicts.
type LegacyVerdict string

const (
	LegacyOK       LegacyVerdict = "OK"
	LegacyUnstable LegacyVerdict = "UNSTABLE"
	LegacyCritical LegacyVerdict = "CRITICAL"
)

// ThresholdVerdict is the outcome of comparing live metrics against
// user-supplied thresholds.
type ThresholdVerdict string

const (
	ThresholdPass     ThresholdVerdict = "PASS"
	ThresholdDegraded ThresholdVerdict = "DEGRADED"
	ThresholdFail     ThresholdVerdict = "FAIL"
)

// SafetyScore is the post-run 0-100 health score with a qualitative
// label, set only once a test completes.
type SafetyScore struct {
	Score       int      `json:"score"`
	Label       string   `json:"label"`
	Explanation []string `json:"explanation"`
}

const (
	SafetyLabelSafe       = "SAFE"
	SafetyLabelWarning    = "WARNING"
	SafetyLabelDangerous  = "DANGEROUS"
)

// TestState is the full record the engine owns and mutates for one
// test id. Readers (status endpoint, history) observe a Snapshot, not
// this struct directly.
type TestState struct {
	ID               string
	Config           Config
	Status           Status
	StartedAt        time.Time
	CompletedAt      *time.Time
	RequestResults   []RequestResult
	Metrics          AggregatedMetrics
	TimeSeries       []TimeSeriesPoint
	LegacyVerdict    LegacyVerdict
	ThresholdVerdict ThresholdVerdict
	VerdictReasons   []string
	FirstViolationAt *int64
	SafetyScore      *SafetyScore
}

// Snapshot is an immutable, independently-owned copy of a TestState
// suitable for handing to a reader without risking torn reads or
// accidental mutation of engine-owned state.
type Snapshot struct {
	ID               string
	Config           Config
	Status           Status
	StartedAt        time.Time
	CompletedAt      *time.Time
	RequestResults   []RequestResult
	Metrics          AggregatedMetrics
	TimeSeries       []TimeSeriesPoint
	LegacyVerdict    LegacyVerdict
	ThresholdVerdict ThresholdVerdict
	VerdictReasons   []string
	FirstViolationAt *int64
	SafetyScore      *SafetyScore
}

// Snapshot copies t into an independent Snapshot. Slices and the
// optional pointer fields are deep-copied so the caller cannot observe
// or cause future mutation of the engine's owned state.
func (t *TestState) Snapshot() Snapshot {
	s := Snapshot{
		ID:               t.ID,
		Config:           t.Config,
		Status:           t.Status,
		StartedAt:        t.StartedAt,
		LegacyVerdict:    t.LegacyVerdict,
		ThresholdVerdict: t.ThresholdVerdict,
		Metrics:          t.Metrics,
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		s.CompletedAt = &c
	}
	if t.FirstViolationAt != nil {
		f := *t.FirstViolationAt
		s.FirstViolationAt = &f
	}
	if t.SafetyScore != nil {
		sc := *t.SafetyScore
		sc.Explanation = append([]string(nil), t.SafetyScore.Explanation...)
		s.SafetyScore = &sc
	}
	s.RequestResults = append([]RequestResult(nil), t.RequestResults...)
	s.TimeSeries = append([]TimeSeriesPoint(nil), t.TimeSeries...)
	s.VerdictReasons = append([]string(nil), t.VerdictReasons...)
	return s
}

// HistoryRecord is a snapshot of a completed test, as stored in the
// bounded in-memory history ring. It carries everything Snapshot does
// except Status and the full per-request result list, which history
// does not need to retain (the time series already summarizes it), and
// adds a CorrelationID.
type HistoryRecord struct {
	ID               string
	CorrelationID    string
	Config           Config
	Metrics          AggregatedMetrics
	SafetyScore      *SafetyScore
	LegacyVerdict    LegacyVerdict
	ThresholdVerdict ThresholdVerdict
	VerdictReasons   []string
	FirstViolationAt *int64
	StartedAt        time.Time
	CompletedAt      time.Time
	TimeSeries       []TimeSeriesPoint
}

// ToHistoryRecord builds the history snapshot for a completed test.
func (s Snapshot) ToHistoryRecord() HistoryRecord {
	completedAt := s.StartedAt
	if s.CompletedAt != nil {
		completedAt = *s.CompletedAt
	}
	return HistoryRecord{
		ID:               s.ID,
		CorrelationID:    uuid.NewString(),
		Config:           s.Config,
		Metrics:          s.Metrics,
		SafetyScore:      s.SafetyScore,
		LegacyVerdict:    s.LegacyVerdict,
		ThresholdVerdict: s.ThresholdVerdict,
		VerdictReasons:   append([]string(nil), s.VerdictReasons...),
		FirstViolationAt: s.FirstViolationAt,
		StartedAt:        s.StartedAt,
		CompletedAt:      completedAt,
		TimeSeries:       append([]TimeSeriesPoint(nil), s.TimeSeries...),
	}
}
