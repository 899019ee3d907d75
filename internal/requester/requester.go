// Package requester issues one HTTP request at a time and classifies
// its outcome per spec §4.2: success on status < 400, failure with no
// error tag on status >= 400, failure tagged "timeout" on
// cancellation, and failure with the transport's message otherwise.
package requester

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/FairForge/loadforge/internal/clock"
	"github.com/FairForge/loadforge/internal/loadmodel"
)

// emptyJSONBody is the only request body this generator ever sends:
// POST requests carry an empty JSON object, never parameterized
// payloads (see spec.md §1 Non-goals).
var emptyJSONBody = []byte("{}")

// Requester issues single requests against a test's target using a
// shared, connection-reusing *http.Client. Reuse across workers is
// intentional: it is what lets connections stay warm the way spec
// §4.2 allows ("connection reuse is allowed").
type Requester struct {
	client *http.Client
	clk    clock.Clock
}

// New builds a Requester. Transport tuning (keep-alives, max idle
// conns per host) mirrors the connection-reuse defaults vaultaire's
// internal/perf/network.go documents for outbound traffic, sized for
// the ~200 concurrent in-flight requests spec §5 calls for.
func New(clk clock.Clock) *Requester {
	if clk == nil {
		clk = clock.Real{}
	}
	transport := &http.Transport{
		MaxIdleConns:        256,
		MaxIdleConnsPerHost: 256,
		MaxConnsPerHost:     256,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Requester{
		client: &http.Client{Transport: transport},
		clk:    clk,
	}
}

// Do issues one request per cfg.Method/cfg.TargetURL, timing out at
// cfg.RequestTimeoutMs. The result's Timestamp is the request's start
// time, not its completion time (spec §4.2).
func (r *Requester) Do(ctx context.Context, cfg loadmodel.Config) loadmodel.RequestResult {
	start := r.clk.Now()

	timeout := time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body *bytes.Reader
	method := http.MethodGet
	if cfg.Method == loadmodel.MethodPOST {
		method = http.MethodPost
		body = bytes.NewReader(emptyJSONBody)
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(reqCtx, method, cfg.TargetURL, body)
	} else {
		req, err = http.NewRequestWithContext(reqCtx, method, cfg.TargetURL, nil)
	}
	if err != nil {
		return r.failure(start, "", err)
	}
	if cfg.Method == loadmodel.MethodPOST {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || reqCtx.Err() == context.DeadlineExceeded {
			return r.timeoutResult(start)
		}
		return r.failure(start, "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	elapsed := r.clk.Now().Sub(start)
	status := resp.StatusCode
	result := loadmodel.RequestResult{
		ResponseTimeMs: msOf(elapsed),
		Status:         &status,
		Timestamp:      start.UnixMilli(),
		StartedAt:      start,
	}
	result.Success = status < 400
	return result
}

func (r *Requester) timeoutResult(start time.Time) loadmodel.RequestResult {
	return loadmodel.RequestResult{
		ResponseTimeMs: msOf(r.clk.Now().Sub(start)),
		Success:        false,
		Error:          "timeout",
		Timestamp:      start.UnixMilli(),
		StartedAt:      start,
	}
}

func (r *Requester) failure(start time.Time, _ string, err error) loadmodel.RequestResult {
	return loadmodel.RequestResult{
		ResponseTimeMs: msOf(r.clk.Now().Sub(start)),
		Success:        false,
		Error:          err.Error(),
		Timestamp:      start.UnixMilli(),
		StartedAt:      start,
	}
}

func msOf(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
