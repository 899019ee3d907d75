// Package threshold maps aggregated metrics and a test's optional
// threshold configuration to a verdict, violation reasons, and an
// auto-stop decision (spec §4.5).
package threshold

import (
	"github.com/FairForge/loadforge/internal/loadmodel"
)

// Reason slugs, named by the threshold they violate.
const (
	ReasonMaxErrorRate   = "maxErrorRatePercent"
	ReasonMinSuccessRate = "minSuccessRatePercent"
	ReasonMaxP95Latency  = "maxP95LatencyMs"
)

// Result is the outcome of one evaluation pass. Violated is true iff
// Reasons is non-empty — the engine alone decides whether this is the
// *first* violation for a test (see SPEC_FULL.md §9, open question 3);
// Evaluate itself is stateless and pure.
type Result struct {
	Verdict   loadmodel.ThresholdVerdict
	Reasons   []string
	Violated  bool
}

// Evaluate compares m against h. A nil h always yields PASS with no
// reasons.
func Evaluate(m loadmodel.AggregatedMetrics, h *loadmodel.Thresholds) Result {
	if h == nil {
		return Result{Verdict: loadmodel.ThresholdPass}
	}

	verdict := loadmodel.ThresholdPass
	var reasons []string

	if h.MaxErrorRatePercent != nil && m.ErrorRatePercentage > *h.MaxErrorRatePercent {
		reasons = append(reasons, ReasonMaxErrorRate)
		verdict = loadmodel.ThresholdFail
	}

	if h.MinSuccessRatePercent != nil {
		successRate := 100.0
		if m.Total > 0 {
			successRate = 100 * float64(m.Successful) / float64(m.Total)
		}
		if successRate < *h.MinSuccessRatePercent {
			reasons = append(reasons, ReasonMinSuccessRate)
			verdict = loadmodel.ThresholdFail
		}
	}

	if h.MaxP95LatencyMs != nil && m.P95ResponseTime > *h.MaxP95LatencyMs {
		reasons = append(reasons, ReasonMaxP95Latency)
		if verdict == loadmodel.ThresholdPass {
			verdict = loadmodel.ThresholdDegraded
		}
		// verdict == FAIL stays FAIL; P95 alone can never reach FAIL.
	}

	return Result{
		Verdict:  verdict,
		Reasons:  reasons,
		Violated: len(reasons) > 0,
	}
}

// ShouldAutoStop reports whether the evaluation should trigger an
// early test stop: verdict FAIL caused by error-rate or success-rate,
// never by P95 alone.
func ShouldAutoStop(r Result) bool {
	if r.Verdict != loadmodel.ThresholdFail {
		return false
	}
	for _, reason := range r.Reasons {
		if reason == ReasonMaxErrorRate || reason == ReasonMinSuccessRate {
			return true
		}
	}
	return false
}
