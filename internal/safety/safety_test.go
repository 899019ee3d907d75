package safety

import (
	"testing"

	"github.com/FairForge/loadforge/internal/loadmodel"
	"github.com/stretchr/testify/assert"
)

func TestCompute_PerfectRunIsSafe(t *testing.T) {
	m := loadmodel.AggregatedMetrics{
		Total: 100, Successful: 100, Failed: 0,
		AvgResponseTime: 50, P95ResponseTime: 60, RequestsPerSecond: 50,
	}
	s := Compute(m)
	assert.Equal(t, 100, s.Score)
	assert.Equal(t, loadmodel.SafetyLabelSafe, s.Label)
	assert.Empty(t, s.Explanation)
}

func TestCompute_HTTPErrorRatePenaltyIsCapped(t *testing.T) {
	m := loadmodel.AggregatedMetrics{Total: 100, Failed: 100, TimeoutCount: 0}
	s := Compute(m)
	assert.Equal(t, 60, s.Score, "min(100*0.6, 40) = 40 penalty, so score=60")
}

func TestCompute_TimeoutPenaltyCappedAt30(t *testing.T) {
	m := loadmodel.AggregatedMetrics{
		Total: 100, Failed: 100, TimeoutCount: 100, TimeoutRatePercentage: 100,
	}
	s := Compute(m)
	// HTTP error rate = (100-100)/100*100 = 0 -> no penalty there.
	// Timeout penalty = min(100*1.2, 30) = 30.
	assert.Equal(t, 70, s.Score)
}

func TestCompute_P95ExcessPenaltyCappedAt25(t *testing.T) {
	m := loadmodel.AggregatedMetrics{Total: 10, Successful: 10, P95ResponseTime: 10000}
	s := Compute(m)
	assert.Equal(t, 75, s.Score, "min((10000-500)/100*3, 25) = 25")
}

func TestCompute_AvgExcessPenaltyCappedAt10(t *testing.T) {
	m := loadmodel.AggregatedMetrics{Total: 10, Successful: 10, AvgResponseTime: 10000}
	s := Compute(m)
	assert.Equal(t, 90, s.Score)
}

func TestCompute_LowThroughputFlatPenalty(t *testing.T) {
	m := loadmodel.AggregatedMetrics{Total: 1, Successful: 1, RequestsPerSecond: 0.5}
	s := Compute(m)
	assert.Equal(t, 95, s.Score)
}

func TestCompute_ZeroThroughputNoPenalty(t *testing.T) {
	m := loadmodel.AggregatedMetrics{Total: 0, RequestsPerSecond: 0}
	s := Compute(m)
	assert.Equal(t, 100, s.Score)
}

func TestCompute_LabelBoundaries(t *testing.T) {
	t.Run("80 is SAFE", func(t *testing.T) {
		m := loadmodel.AggregatedMetrics{Total: 100, Failed: 33, TimeoutCount: 0} // ~33*0.6=19.8 -> 80
		s := Compute(m)
		assert.Equal(t, loadmodel.SafetyLabelSafe, s.Label)
	})

	t.Run("below 50 is DANGEROUS", func(t *testing.T) {
		m := loadmodel.AggregatedMetrics{Total: 100, Failed: 100, TimeoutCount: 100, TimeoutRatePercentage: 100, P95ResponseTime: 10000, AvgResponseTime: 10000}
		s := Compute(m)
		assert.Equal(t, loadmodel.SafetyLabelDangerous, s.Label)
		assert.Less(t, s.Score, 50)
	})
}

func TestCompute_ScoreNeverNegative(t *testing.T) {
	m := loadmodel.AggregatedMetrics{
		Total: 100, Failed: 100, TimeoutCount: 100, TimeoutRatePercentage: 100,
		P95ResponseTime: 1000000, AvgResponseTime: 1000000, RequestsPerSecond: 0.01,
	}
	s := Compute(m)
	assert.GreaterOrEqual(t, s.Score, 0)
}
