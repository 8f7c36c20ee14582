package api

import (
	"log/slog"
	"net/http"
	"time"

	"confsched/internal/adapters/http/perf"
)

// TimedTransport records every upstream call into the perf collector and
// warns about slow ones.
type TimedTransport struct {
	Base        http.RoundTripper // nil means http.DefaultTransport
	Collector   *perf.Collector   // optional
	ThresholdMs float64
}

// RoundTrip implements http.RoundTripper.
// PRE: req is a valid outgoing request
// POST: the call is timed and recorded; response and error are passed through untouched
func (t *TimedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	op := req.Method + " " + req.URL.Path

	switch {
	case err != nil:
		slog.Warn("upstream_error", "op", op, "duration_ms", durationMs, "error", err)
	case durationMs >= t.ThresholdMs:
		slog.Warn("slow_upstream", "op", op, "status", status, "duration_ms", durationMs)
	default:
		slog.Debug("upstream", "op", op, "status", status, "duration_ms", durationMs)
	}

	if t.Collector != nil {
		t.Collector.Record(perf.Entry{
			Kind:       perf.KindUpstream,
			Path:       op,
			StatusCode: status,
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
	return resp, err
}
