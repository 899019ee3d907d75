// Package pattern implements the pure load-pattern functions: given a
// pattern, elapsed time, total duration, and base concurrency, derive
// effective concurrency and per-worker inter-request delay (spec §4.3).
package pattern

import (
	"math"

	"github.com/FairForge/loadforge/internal/loadmodel"
)

// ConcurrencyAt returns c(t), the number of requesters permitted to be
// actively issuing requests at elapsedMs, bounded to
// [1, max(n, spikeConcurrency)].
func ConcurrencyAt(p *loadmodel.Pattern, elapsedMs int64, durationSeconds, n int) int {
	if p == nil {
		return n
	}
	elapsedSec := float64(elapsedMs) / 1000.0

	switch p.Type {
	case loadmodel.PatternRampUp:
		r := p.RampUpSeconds
		if r <= 0 {
			return n
		}
		if elapsedSec >= float64(r) {
			return n
		}
		c := int(math.Floor(float64(n) * elapsedSec / float64(r)))
		if c < 1 {
			c = 1
		}
		return c

	case loadmodel.PatternSpike:
		start := durationSeconds - p.SpikeDurationSeconds
		if start < 0 {
			start = 0
		}
		end := start + p.SpikeDurationSeconds
		if elapsedSec >= float64(start) && elapsedSec < float64(end) {
			return p.SpikeConcurrency
		}
		return n

	default: // fixed_concurrency, fixed_rps
		return n
	}
}

// DelayMs returns the inter-request delay a single worker should wait
// between its own requests. Only fixed_rps specifies a non-zero delay.
func DelayMs(p *loadmodel.Pattern, n int) float64 {
	if p == nil || p.Type != loadmodel.PatternFixedRPS {
		return 0
	}
	if p.TargetRPS <= 0 {
		return 0
	}
	return (1000.0 / float64(p.TargetRPS)) * float64(n)
}

// PreviewPoint is one sample of the concurrency curve.
type PreviewPoint struct {
	TimeSec     int `json:"timeSec"`
	Concurrency int `json:"concurrency"`
}

// Preview samples c(t) at step = max(1, floor(D/50)) seconds from t=0
// to t=D inclusive, always including a final point at t=D.
func Preview(p *loadmodel.Pattern, durationSeconds, n int) []PreviewPoint {
	step := durationSeconds / 50
	if step < 1 {
		step = 1
	}

	var points []PreviewPoint
	for t := 0; t <= durationSeconds; t += step {
		c := ConcurrencyAt(p, int64(t)*1000, durationSeconds, n)
		points = append(points, PreviewPoint{TimeSec: t, Concurrency: c})
	}
	if len(points) == 0 || points[len(points)-1].TimeSec != durationSeconds {
		c := ConcurrencyAt(p, int64(durationSeconds)*1000, durationSeconds, n)
		points = append(points, PreviewPoint{TimeSec: durationSeconds, Concurrency: c})
	}
	return points
}
