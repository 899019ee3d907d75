// internal/ratelimit/global.go
package ratelimit

import (
	"sync"
	"time"

	"github.com/FairForge/loadforge/internal/clock"
)

// DefaultWindow and DefaultCapPerWindow are the process-wide
// sliding-window parameters: at most DefaultCapPerWindow accepted
// request starts in any rolling DefaultWindow-wide span.
const (
	DefaultWindow     = 1000 * time.Millisecond
	DefaultCapPerWindow = 500
	backoffInterval   = 20 * time.Millisecond
)

// GlobalLimiter is a process-wide sliding-window cap on outgoing
// request starts. It is independent of how many tests run
// concurrently: every requester across every test shares one
// GlobalLimiter instance.
//
// The window is tracked as an explicit ring buffer of accepted
// timestamps rather than a token-bucket approximation (golang.org/x/time/rate
// models refill, not "count of starts actually admitted in the last
// N ms", and callers need the latter to reason about admission
// under test) — see DESIGN.md for why x/time/rate was not reused here.
type GlobalLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	cap      int
	clk      clock.Clock
	ring     []time.Time
	head     int // index of the oldest entry
	size     int // number of valid entries
	onReject func()
}

// NewGlobalLimiter creates a limiter capping admissions to capPerWindow
// per rolling window, using clk as its time source.
func NewGlobalLimiter(window time.Duration, capPerWindow int, clk clock.Clock) *GlobalLimiter {
	if clk == nil {
		clk = clock.Real{}
	}
	return &GlobalLimiter{
		window: window,
		cap:    capPerWindow,
		clk:    clk,
		ring:   make([]time.Time, capPerWindow),
	}
}

// NewDefaultGlobalLimiter builds the limiter spec §4.1 describes: a
// 1000ms window capped at 500 accepted starts.
func NewDefaultGlobalLimiter(clk clock.Clock) *GlobalLimiter {
	return NewGlobalLimiter(DefaultWindow, DefaultCapPerWindow, clk)
}

// tryAdmit evicts entries older than window, then admits if the
// remaining count is below cap, appending now on admission.
func (l *GlobalLimiter) tryAdmit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	cutoff := now.Add(-l.window)

	for l.size > 0 && l.ring[l.head].Before(cutoff) {
		l.head = (l.head + 1) % l.cap
		l.size--
	}

	if l.size >= l.cap {
		return false
	}

	tail := (l.head + l.size) % l.cap
	l.ring[tail] = now
	l.size++
	return true
}

// Admit blocks (sleeping backoffInterval between attempts) until the
// window has room, then records the admission. It never blocks
// forever as long as time advances and the window keeps draining.
func (l *GlobalLimiter) Admit() {
	for !l.tryAdmit() {
		if l.onReject != nil {
			l.onReject()
		}
		l.clk.Sleep(backoffInterval)
	}
}

// SetOnReject installs a callback invoked once per backed-off
// admission attempt, for metrics export. Passing nil disables it.
func (l *GlobalLimiter) SetOnReject(f func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onReject = f
}

// InFlight reports how many starts are currently counted within the
// window, for diagnostics/metrics export.
func (l *GlobalLimiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	cutoff := now.Add(-l.window)
	for l.size > 0 && l.ring[l.head].Before(cutoff) {
		l.head = (l.head + 1) % l.cap
		l.size--
	}
	return l.size
}
