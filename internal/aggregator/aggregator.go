// Package aggregator computes the pure, idempotent functions that
// turn a test's request results into summary statistics and
// time-series buckets (spec §4.4).
package aggregator

import (
	"math"
	"sort"

	"github.com/FairForge/loadforge/internal/loadmodel"
)

// ComputeMetrics derives AggregatedMetrics from the full result list,
// against durationSeconds elapsed. Percentiles and min/max/avg are
// computed over successful requests only; with zero successes they
// are all zero.
func ComputeMetrics(results []loadmodel.RequestResult, durationSeconds float64) loadmodel.AggregatedMetrics {
	m := loadmodel.AggregatedMetrics{Total: len(results)}

	successes := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Success {
			m.Successful++
			successes = append(successes, r.ResponseTimeMs)
		}
		if r.Error == "timeout" {
			m.TimeoutCount++
		}
	}
	m.Failed = m.Total - m.Successful

	if m.Total > 0 {
		m.ErrorRatePercentage = round2(100 * float64(m.Failed) / float64(m.Total))
		m.TimeoutRatePercentage = round2(100 * float64(m.TimeoutCount) / float64(m.Total))
	}

	if durationSeconds > 0 {
		m.RequestsPerSecond = round2(float64(m.Total) / durationSeconds)
	}

	sort.Float64s(successes)
	l := len(successes)
	if l > 0 {
		m.MinResponseTime = round2(successes[0])
		m.MaxResponseTime = round2(successes[l-1])

		var sum float64
		for _, v := range successes {
			sum += v
		}
		m.AvgResponseTime = round2(sum / float64(l))

		m.P95ResponseTime = round2(percentile(successes, 0.95))
		m.P99ResponseTime = round2(percentile(successes, 0.99))
	}

	return m
}

// percentile performs linear interpolation at fractional rank (L-1)*p.
func percentile(sorted []float64, p float64) float64 {
	l := len(sorted)
	if l == 0 {
		return 0
	}
	if l == 1 {
		return sorted[0]
	}
	rank := float64(l-1) * p
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// BuildTimeSeries partitions results into 1-second buckets keyed by
// startedAt, emitting one point per occupied bucket in ascending
// order. Empty buckets are omitted.
func BuildTimeSeries(results []loadmodel.RequestResult, startedAt int64) []loadmodel.TimeSeriesPoint {
	type bucketAgg struct {
		sum         float64
		count       int
		successes   int
		failures    int
	}
	buckets := make(map[int64]*bucketAgg)

	for _, r := range results {
		bucket := (r.Timestamp - startedAt) / 1000
		if bucket < 0 {
			bucket = 0
		}
		b, ok := buckets[bucket]
		if !ok {
			b = &bucketAgg{}
			buckets[bucket] = b
		}
		b.sum += r.ResponseTimeMs
		b.count++
		if r.Success {
			b.successes++
		} else {
			b.failures++
		}
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	points := make([]loadmodel.TimeSeriesPoint, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		var errorRate float64
		total := b.successes + b.failures
		if total > 0 {
			errorRate = round2(100 * float64(b.failures) / float64(total))
		}
		var mean float64
		if b.count > 0 {
			mean = round2(b.sum / float64(b.count))
		}
		points = append(points, loadmodel.TimeSeriesPoint{
			Time:         startedAt + k*1000,
			ResponseTime: mean,
			ErrorRate:    errorRate,
			SuccessCount: b.successes,
			FailCount:    b.failures,
		})
	}
	return points
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
