// internal/ratelimit/headers.go
package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// StartAdmissionLimiter is a token-bucket middleware guarding the
// POST /tests admission endpoint: it bounds how often this process
// accepts a *new test start*, independent of GlobalLimiter (which
// paces outgoing requests a running test issues against its target).
// Exceeding callers see a 429 with the usual rate-limit headers
// attached rather than being admitted and immediately starved of rate
// budget by whatever tests are already running.
type StartAdmissionLimiter struct {
	limiter *rate.Limiter
	burst   int
	useIETF bool
}

// NewStartAdmissionLimiter builds a limiter admitting up to
// testStartsPerSecond new test starts per second, with burstCapacity
// of slack for callers that briefly exceed the steady rate.
func NewStartAdmissionLimiter(testStartsPerSecond, burstCapacity int) *StartAdmissionLimiter {
	return &StartAdmissionLimiter{
		limiter: rate.NewLimiter(rate.Limit(testStartsPerSecond), burstCapacity),
		burst:   burstCapacity,
	}
}

// UseIETFDraft switches the emitted headers from the traditional
// X-RateLimit-* names to the unprefixed IETF draft names.
func (sl *StartAdmissionLimiter) UseIETFDraft(use bool) {
	sl.useIETF = use
}

// Middleware wraps a POST /tests handler, rejecting admission once the
// bucket is empty and always annotating the response with the
// caller's remaining test-start budget.
func (sl *StartAdmissionLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed := sl.limiter.Allow()

		remaining := int(sl.limiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		resetAt := time.Now().Add(time.Second).Unix()

		if sl.useIETF {
			w.Header().Set("RateLimit-Limit", strconv.Itoa(sl.burst))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("RateLimit-Reset", strconv.FormatInt(resetAt, 10))
		} else {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(sl.burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
		}

		if !allowed {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "too many test-start requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
