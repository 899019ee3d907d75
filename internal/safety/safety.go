// Package safety computes the post-run safety score: a 0-100 health
// score with weighted penalties and a qualitative label (spec §4.6),
// in the same start-at-100-and-subtract style as vaultaire's
// loadtest.BottleneckAnalyzer.calculateHealthScore.
package safety

import (
	"fmt"
	"math"

	"github.com/FairForge/loadforge/internal/loadmodel"
)

// Compute derives a SafetyScore from final metrics. It is only
// meaningful once a test has completed.
func Compute(m loadmodel.AggregatedMetrics) loadmodel.SafetyScore {
	score := 100.0
	var explanation []string

	if m.Total > 0 {
		httpErrorRate := 100 * float64(m.Failed-m.TimeoutCount) / float64(m.Total)
		if httpErrorRate > 0 {
			penalty := math.Min(httpErrorRate*0.6, 40)
			score -= penalty
			explanation = append(explanation, fmt.Sprintf("HTTP error rate %.2f%% (-%.1f)", httpErrorRate, penalty))
		}
	}

	if m.TimeoutRatePercentage > 0 {
		penalty := math.Min(m.TimeoutRatePercentage*1.2, 30)
		score -= penalty
		explanation = append(explanation, fmt.Sprintf("timeout rate %.2f%% (-%.1f)", m.TimeoutRatePercentage, penalty))
	}

	if m.P95ResponseTime > 500 {
		penalty := math.Min((m.P95ResponseTime-500)/100*3, 25)
		score -= penalty
		explanation = append(explanation, fmt.Sprintf("p95 latency %.2fms exceeds 500ms (-%.1f)", m.P95ResponseTime, penalty))
	}

	if m.AvgResponseTime > 300 {
		penalty := math.Min((m.AvgResponseTime-300)/100*1, 10)
		score -= penalty
		explanation = append(explanation, fmt.Sprintf("avg latency %.2fms exceeds 300ms (-%.1f)", m.AvgResponseTime, penalty))
	}

	if m.RequestsPerSecond > 0 && m.RequestsPerSecond < 1 {
		score -= 5
		explanation = append(explanation, "throughput below 1 rps (-5.0)")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	rounded := int(math.Round(score))

	label := loadmodel.SafetyLabelDangerous
	switch {
	case rounded >= 80:
		label = loadmodel.SafetyLabelSafe
	case rounded >= 50:
		label = loadmodel.SafetyLabelWarning
	}

	return loadmodel.SafetyScore{
		Score:       rounded,
		Label:       label,
		Explanation: explanation,
	}
}
