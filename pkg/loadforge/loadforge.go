// Package loadforge is the programmatic facade over the load engine:
// everything an embedding Go program needs to start tests, poll their
// status, and read completed-test history, without reaching into
// internal/loadengine directly. It mirrors the thin public-surface
// pattern vaultaire exposes through internal/api.Server's exported
// methods (Start, Shutdown, GetRouter) rather than handing callers the
// engine's internals.
package loadforge

import (
	"time"

	"github.com/FairForge/loadforge/internal/clock"
	"github.com/FairForge/loadforge/internal/loadengine"
	"github.com/FairForge/loadforge/internal/loadmodel"
	"github.com/FairForge/loadforge/internal/metrics"
	"github.com/FairForge/loadforge/internal/pattern"
	"github.com/FairForge/loadforge/internal/ratelimit"
	"github.com/FairForge/loadforge/internal/requester"
	"go.uber.org/zap"
)

func durationMs(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Config, Thresholds and Pattern are re-exported so callers never need
// to import internal/loadmodel directly.
type (
	Config     = loadmodel.Config
	Thresholds = loadmodel.Thresholds
	Pattern    = loadmodel.Pattern
	Snapshot   = loadmodel.Snapshot
	HistoryRecord = loadmodel.HistoryRecord
	PreviewPoint  = pattern.PreviewPoint
)

// Engine runs load tests. It is safe for concurrent use by any number
// of callers.
type Engine struct {
	inner *loadengine.Engine
}

// Options configures a new Engine. All fields are optional; the zero
// value builds an engine with the spec's default rate limiter (1000ms
// window, 500 cap per window) and a no-op logger.
type Options struct {
	RateLimiterWindowMs int
	RateLimiterCap      int
	Logger              *zap.Logger
	Metrics             *metrics.Collector
}

// New builds an Engine ready to accept StartLoadTest calls.
func New(opts Options) *Engine {
	clk := clock.Real{}

	limiter := ratelimit.NewDefaultGlobalLimiter(clk)
	if opts.RateLimiterWindowMs > 0 && opts.RateLimiterCap > 0 {
		limiter = ratelimit.NewGlobalLimiter(
			durationMs(opts.RateLimiterWindowMs), opts.RateLimiterCap, clk)
	}

	req := requester.New(clk)

	return &Engine{
		inner: loadengine.New(limiter, req, clk, opts.Logger, opts.Metrics),
	}
}

// StartLoadTest clamps cfg (without calling cfg.Validate), registers
// the test, and returns its id. The test runs asynchronously; poll GetTest for
// progress.
func (e *Engine) StartLoadTest(cfg Config) string {
	return e.inner.StartLoadTest(cfg)
}

// GetTest returns the current (possibly still-running) snapshot for id.
func (e *Engine) GetTest(id string) (Snapshot, bool) {
	return e.inner.GetTest(id)
}

// GetHistory returns every completed test, most-recent-first, capped
// at the history ring's fixed size of 100 records.
func (e *Engine) GetHistory() []HistoryRecord {
	return e.inner.GetHistory()
}

// GetHistoryRecord looks up one completed test's history entry by id.
func (e *Engine) GetHistoryRecord(id string) (HistoryRecord, bool) {
	return e.inner.GetHistoryRecord(id)
}

// GetHistoryRecords looks up several history entries at once, returned
// in history order rather than the order ids were supplied in.
func (e *Engine) GetHistoryRecords(ids []string) []HistoryRecord {
	return e.inner.GetHistoryRecords(ids)
}

// GetPatternPreview samples the effective-concurrency curve for p
// over [0, durationSeconds] at base concurrency n, for UI/CLI preview
// before a test is started.
func (e *Engine) GetPatternPreview(p *Pattern, durationSeconds, n int) []PreviewPoint {
	return e.inner.GetPatternPreview(p, durationSeconds, n)
}
