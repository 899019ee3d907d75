package threshold

import (
	"testing"

	"github.com/FairForge/loadforge/internal/loadmodel"
	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestEvaluate_NilThresholdsPass(t *testing.T) {
	r := Evaluate(loadmodel.AggregatedMetrics{ErrorRatePercentage: 99}, nil)
	assert.Equal(t, loadmodel.ThresholdPass, r.Verdict)
	assert.Empty(t, r.Reasons)
	assert.False(t, r.Violated)
}

func TestEvaluate_ErrorRateExceeded(t *testing.T) {
	h := &loadmodel.Thresholds{MaxErrorRatePercent: ptr(10)}
	r := Evaluate(loadmodel.AggregatedMetrics{ErrorRatePercentage: 10.01}, h)
	assert.Equal(t, loadmodel.ThresholdFail, r.Verdict)
	assert.Contains(t, r.Reasons, ReasonMaxErrorRate)
}

func TestEvaluate_ExactlyOnThresholdDoesNotViolate(t *testing.T) {
	h := &loadmodel.Thresholds{MaxErrorRatePercent: ptr(10)}
	r := Evaluate(loadmodel.AggregatedMetrics{ErrorRatePercentage: 10}, h)
	assert.Equal(t, loadmodel.ThresholdPass, r.Verdict)
	assert.False(t, r.Violated)
}

func TestEvaluate_MinSuccessRate(t *testing.T) {
	h := &loadmodel.Thresholds{MinSuccessRatePercent: ptr(95)}

	t.Run("violates below limit", func(t *testing.T) {
		r := Evaluate(loadmodel.AggregatedMetrics{Total: 10, Successful: 9}, h)
		assert.Equal(t, loadmodel.ThresholdFail, r.Verdict)
		assert.Contains(t, r.Reasons, ReasonMinSuccessRate)
	})

	t.Run("zero total defaults success rate to 100", func(t *testing.T) {
		r := Evaluate(loadmodel.AggregatedMetrics{Total: 0}, h)
		assert.Equal(t, loadmodel.ThresholdPass, r.Verdict)
	})
}

func TestEvaluate_P95OnlyDegradesNeverFails(t *testing.T) {
	h := &loadmodel.Thresholds{MaxP95LatencyMs: ptr(200)}
	r := Evaluate(loadmodel.AggregatedMetrics{P95ResponseTime: 500}, h)
	assert.Equal(t, loadmodel.ThresholdDegraded, r.Verdict)
	assert.Contains(t, r.Reasons, ReasonMaxP95Latency)
	assert.NotContains(t, r.Reasons, ReasonMaxErrorRate)
}

func TestEvaluate_P95WithExistingFailStaysFail(t *testing.T) {
	h := &loadmodel.Thresholds{MaxErrorRatePercent: ptr(1), MaxP95LatencyMs: ptr(200)}
	r := Evaluate(loadmodel.AggregatedMetrics{ErrorRatePercentage: 50, P95ResponseTime: 500}, h)
	assert.Equal(t, loadmodel.ThresholdFail, r.Verdict)
	assert.Contains(t, r.Reasons, ReasonMaxErrorRate)
	assert.Contains(t, r.Reasons, ReasonMaxP95Latency)
}

func TestShouldAutoStop(t *testing.T) {
	t.Run("stops on error-rate FAIL", func(t *testing.T) {
		r := Result{Verdict: loadmodel.ThresholdFail, Reasons: []string{ReasonMaxErrorRate}}
		assert.True(t, ShouldAutoStop(r))
	})

	t.Run("stops on success-rate FAIL", func(t *testing.T) {
		r := Result{Verdict: loadmodel.ThresholdFail, Reasons: []string{ReasonMinSuccessRate}}
		assert.True(t, ShouldAutoStop(r))
	})

	t.Run("does not stop on P95-only FAIL-shaped result", func(t *testing.T) {
		// P95 alone can't produce FAIL, but guard the policy directly.
		r := Result{Verdict: loadmodel.ThresholdFail, Reasons: []string{ReasonMaxP95Latency}}
		assert.False(t, ShouldAutoStop(r))
	})

	t.Run("does not stop on DEGRADED", func(t *testing.T) {
		r := Result{Verdict: loadmodel.ThresholdDegraded, Reasons: []string{ReasonMaxP95Latency}}
		assert.False(t, ShouldAutoStop(r))
	})
}
