// Package loadengine is the scheduler: it owns a test's lifecycle
// from StartLoadTest through finalization, spawning the worker pool,
// applying the load pattern, driving the aggregator and threshold
// evaluator after every result, and recording history (spec §4.7).
//
// Per-test mutation uses an actor-style owner: one goroutine per test
// id receives results over a channel and is the sole mutator of that
// test's state, mirroring the channel + collectResults split in
// vaultaire's internal/loadtest/framework.go Run. A separate atomic
// flag (not the channel) carries the stop signal to requester
// goroutines, since they must observe it without round-tripping
// through the owner.
package loadengine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/loadforge/internal/aggregator"
	"github.com/FairForge/loadforge/internal/clock"
	"github.com/FairForge/loadforge/internal/history"
	"github.com/FairForge/loadforge/internal/loadmodel"
	"github.com/FairForge/loadforge/internal/metrics"
	"github.com/FairForge/loadforge/internal/pattern"
	"github.com/FairForge/loadforge/internal/ratelimit"
	"github.com/FairForge/loadforge/internal/safety"
	"github.com/FairForge/loadforge/internal/store"
	"github.com/FairForge/loadforge/internal/threshold"
)

const maskSleep = 100 * time.Millisecond

// previewCacheSize bounds the pattern-preview memoization cache
// (spec §6, getPatternPreview): one entry per distinct (pattern,
// duration, concurrency) tuple polled by a collaborator.
const previewCacheSize = 256

// Requester issues one request per call and reports its outcome. The
// production implementation is *requester.Requester; tests substitute
// a deterministic stub so scenario behavior (response time, status)
// doesn't depend on a real network round-trip or real wall-clock time.
type Requester interface {
	Do(ctx context.Context, cfg loadmodel.Config) loadmodel.RequestResult
}

// Engine is the scheduler: it creates and owns every in-flight test's
// lifecycle.
type Engine struct {
	store   *store.Store
	history *history.Ring
	limiter *ratelimit.GlobalLimiter
	req     Requester
	clk     clock.Clock
	log     *zap.Logger
	metrics *metrics.Collector
	preview *pattern.PreviewCache
}

// New builds an Engine. A nil clk defaults to clock.Real{}, a nil log
// defaults to a no-op logger, and a nil mc builds a fresh Collector.
// The limiter's rejection callback is wired to mc here so backoff
// events surface on /metrics without the limiter importing metrics
// itself.
func New(limiter *ratelimit.GlobalLimiter, req Requester, clk clock.Clock, log *zap.Logger, mc *metrics.Collector) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if mc == nil {
		mc = metrics.NewCollector()
	}
	if limiter != nil {
		limiter.SetOnReject(mc.RecordRateLimiterRejection)
	}
	return &Engine{
		store:   store.New(),
		history: history.New(),
		limiter: limiter,
		req:     req,
		clk:     clk,
		log:     log,
		metrics: mc,
		preview: pattern.NewPreviewCache(previewCacheSize),
	}
}

// StartLoadTest clamps cfg, registers a new running test state, and
// returns its id synchronously. It does not call cfg.Validate; a
// config that Validate would reject still starts. The run itself
// proceeds in the background.
func (e *Engine) StartLoadTest(cfg loadmodel.Config) string {
	cfg.Clamp()

	id := newID(e.clk)
	startedAt := e.clk.Now()

	ts := &loadmodel.TestState{
		ID:               id,
		Config:           cfg,
		Status:           loadmodel.StatusRunning,
		StartedAt:        startedAt,
		LegacyVerdict:    loadmodel.LegacyOK,
		ThresholdVerdict: loadmodel.ThresholdPass,
	}
	e.store.Set(id, ts)
	e.metrics.TestStarted()

	go e.run(id, cfg, startedAt)

	return id
}

// GetTest returns a snapshot of the live or completed state for id.
func (e *Engine) GetTest(id string) (loadmodel.Snapshot, bool) {
	return e.store.Get(id)
}

// GetHistory returns every completed-test history record,
// most-recent-first.
func (e *Engine) GetHistory() []loadmodel.HistoryRecord {
	return e.history.All()
}

// GetHistoryRecord looks up one history record by id.
func (e *Engine) GetHistoryRecord(id string) (loadmodel.HistoryRecord, bool) {
	return e.history.Get(id)
}

// GetHistoryRecords looks up several history records by id, returned
// in history order (not the order ids were given).
func (e *Engine) GetHistoryRecords(ids []string) []loadmodel.HistoryRecord {
	return e.history.GetMany(ids)
}

// GetPatternPreview samples c(t) for p over [0, durationSeconds] at
// the spec's step = max(1, floor(D/50)) cadence (spec §6), memoized so
// repeated status polling during a running test doesn't recompute the
// curve on every call.
func (e *Engine) GetPatternPreview(p *loadmodel.Pattern, durationSeconds, n int) []pattern.PreviewPoint {
	return e.preview.Get(p, durationSeconds, n)
}

// run drives one test's full lifecycle: spawn workers, collect
// results until they drain, finalize. A panic in this goroutine is
// recovered and surfaces as a failed test rather than crashing the
// process; the collector goroutine recovers its own panics the same
// way. Requester goroutines have no recover, so a panic in one of
// them is not caught here.
func (e *Engine) run(id string, cfg loadmodel.Config, startedAt time.Time) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("load test run panicked",
				zap.String("testId", id),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			completedAt := e.clk.Now()
			e.store.Update(id, func(ts *loadmodel.TestState) {
				ts.Status = loadmodel.StatusFailed
				ts.CompletedAt = &completedAt
			})
		}
	}()

	var stopFlag atomic.Bool
	resultCh := make(chan loadmodel.RequestResult, cfg.ConcurrentUsers*10+16)
	collectorDone := make(chan struct{})

	go e.collect(id, cfg, startedAt, resultCh, &stopFlag, collectorDone)

	durationMs := int64(cfg.DurationSeconds) * 1000
	var wg sync.WaitGroup

	for i := 0; i < cfg.ConcurrentUsers; i++ {
		wg.Add(1)
		go e.requesterLoop(i, cfg, startedAt, durationMs, &stopFlag, resultCh, &wg)
	}

	if spike := cfg.Pattern; spike != nil && spike.Type == loadmodel.PatternSpike &&
		spike.SpikeConcurrency > cfg.ConcurrentUsers {
		wg.Add(1)
		go e.spawnSpikeCohort(cfg, startedAt, durationMs, &stopFlag, resultCh, &wg)
	}

	wg.Wait()
	close(resultCh)
	<-collectorDone
}

// spawnSpikeCohort waits until the spike window opens, then launches
// the additional spikeConcurrency-N requesters (spec §4.7). It holds
// its own WaitGroup slot open for the whole wait so wg never reaches
// zero before the cohort has had a chance to start.
func (e *Engine) spawnSpikeCohort(
	cfg loadmodel.Config,
	startedAt time.Time,
	durationMs int64,
	stopFlag *atomic.Bool,
	resultCh chan<- loadmodel.RequestResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	spikeStartSec := cfg.DurationSeconds - cfg.Pattern.SpikeDurationSeconds
	if spikeStartSec < 0 {
		spikeStartSec = 0
	}
	deadline := startedAt.Add(time.Duration(spikeStartSec) * time.Second)

	for e.clk.Now().Before(deadline) {
		if stopFlag.Load() {
			return
		}
		wait := deadline.Sub(e.clk.Now())
		if wait > maskSleep {
			wait = maskSleep
		}
		e.clk.Sleep(wait)
	}
	if stopFlag.Load() {
		return
	}

	extra := cfg.Pattern.SpikeConcurrency - cfg.ConcurrentUsers
	for j := 0; j < extra; j++ {
		wg.Add(1)
		idx := cfg.ConcurrentUsers + j
		go e.requesterLoop(idx, cfg, startedAt, durationMs, stopFlag, resultCh, wg)
	}
}

// requesterLoop is one worker's full iteration cycle (spec §4.7,
// steps 1-5): mask check, inter-request delay, rate-limiter
// admission, issue the request, hand the result to the owner.
func (e *Engine) requesterLoop(
	idx int,
	cfg loadmodel.Config,
	startedAt time.Time,
	durationMs int64,
	stopFlag *atomic.Bool,
	resultCh chan<- loadmodel.RequestResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for {
		if stopFlag.Load() {
			return
		}
		elapsedMs := e.clk.Now().Sub(startedAt).Milliseconds()
		if elapsedMs >= durationMs {
			return
		}

		c := pattern.ConcurrencyAt(cfg.Pattern, elapsedMs, cfg.DurationSeconds, cfg.ConcurrentUsers)
		if idx >= c {
			e.clk.Sleep(maskSleep)
			continue
		}

		if d := pattern.DelayMs(cfg.Pattern, cfg.ConcurrentUsers); d > 0 {
			e.clk.Sleep(time.Duration(d * float64(time.Millisecond)))
		}

		e.limiter.Admit()
		if stopFlag.Load() {
			return
		}

		result := e.req.Do(context.Background(), cfg)
		e.metrics.RecordRequest(outcomeLabel(result))
		resultCh <- result
	}
}

// outcomeLabel maps a RequestResult to the metrics outcome label.
func outcomeLabel(r loadmodel.RequestResult) string {
	switch {
	case r.Success:
		return "success"
	case r.Error == "timeout":
		return "timeout"
	default:
		return "failure"
	}
}

// collect is the per-test owner: it is the sole mutator of this
// test's aggregate state, processing results strictly in the order
// workers hand them off. When resultCh closes (all requesters have
// exited) it finalizes the test and returns.
func (e *Engine) collect(
	id string,
	cfg loadmodel.Config,
	startedAt time.Time,
	resultCh <-chan loadmodel.RequestResult,
	stopFlag *atomic.Bool,
	done chan<- struct{},
) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("collector panicked",
				zap.String("testId", id),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			completedAt := e.clk.Now()
			e.store.Update(id, func(ts *loadmodel.TestState) {
				ts.Status = loadmodel.StatusFailed
				ts.CompletedAt = &completedAt
			})
		}
	}()

	var results []loadmodel.RequestResult
	var reasons []string
	var firstViolationAt *int64
	legacy := loadmodel.LegacyOK
	verdict := loadmodel.ThresholdPass

	for r := range resultCh {
		results = append(results, r)

		elapsedSeconds := e.clk.Now().Sub(startedAt).Seconds()
		metrics := aggregator.ComputeMetrics(results, elapsedSeconds)
		series := aggregator.BuildTimeSeries(results, startedAt.UnixMilli())

		switch {
		case metrics.ErrorRatePercentage > 60:
			legacy = loadmodel.LegacyCritical
		case metrics.ErrorRatePercentage > 30:
			legacy = loadmodel.LegacyUnstable
		default:
			legacy = loadmodel.LegacyOK
		}

		tr := threshold.Evaluate(metrics, cfg.Thresholds)
		verdict = tr.Verdict
		reasons = tr.Reasons
		if tr.Violated && firstViolationAt == nil {
			now := e.clk.Now().UnixMilli()
			firstViolationAt = &now
		}
		if threshold.ShouldAutoStop(tr) {
			stopFlag.Store(true)
		}

		e.store.Update(id, func(ts *loadmodel.TestState) {
			ts.RequestResults = results
			ts.Metrics = metrics
			ts.TimeSeries = series
			ts.LegacyVerdict = legacy
			ts.ThresholdVerdict = verdict
			ts.VerdictReasons = reasons
			ts.FirstViolationAt = firstViolationAt
		})
	}

	e.finalize(id, cfg, startedAt, results, legacy, verdict, reasons, firstViolationAt)
}

// finalize recomputes metrics and time-series against the actual
// elapsed time (not the configured duration), scores the run, and
// appends a history record (spec §4.7).
func (e *Engine) finalize(
	id string,
	cfg loadmodel.Config,
	startedAt time.Time,
	results []loadmodel.RequestResult,
	legacy loadmodel.LegacyVerdict,
	verdict loadmodel.ThresholdVerdict,
	reasons []string,
	firstViolationAt *int64,
) {
	completedAt := e.clk.Now()
	elapsedSeconds := completedAt.Sub(startedAt).Seconds()

	metrics := aggregator.ComputeMetrics(results, elapsedSeconds)
	series := aggregator.BuildTimeSeries(results, startedAt.UnixMilli())
	score := safety.Compute(metrics)

	tr := threshold.Evaluate(metrics, cfg.Thresholds)
	verdict = tr.Verdict
	reasons = tr.Reasons
	if tr.Violated && firstViolationAt == nil {
		now := completedAt.UnixMilli()
		firstViolationAt = &now
	}

	e.metrics.TestFinished()
	e.metrics.RecordCompletion(metrics.P95ResponseTime)

	switch {
	case metrics.ErrorRatePercentage > 60:
		legacy = loadmodel.LegacyCritical
	case metrics.ErrorRatePercentage > 30:
		legacy = loadmodel.LegacyUnstable
	default:
		legacy = loadmodel.LegacyOK
	}

	snap, ok := e.store.Update(id, func(ts *loadmodel.TestState) {
		if ts.Status == loadmodel.StatusRunning {
			ts.Status = loadmodel.StatusCompleted
		}
		ts.CompletedAt = &completedAt
		ts.RequestResults = results
		ts.Metrics = metrics
		ts.TimeSeries = series
		ts.LegacyVerdict = legacy
		ts.ThresholdVerdict = verdict
		ts.VerdictReasons = reasons
		ts.FirstViolationAt = firstViolationAt
		sc := score
		ts.SafetyScore = &sc
	})
	if !ok {
		e.log.Error("finalize: test id vanished from store", zap.String("testId", id))
		return
	}

	e.history.Append(snap.ToHistoryRecord())
}
