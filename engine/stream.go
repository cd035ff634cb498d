package engine

import (
	"context"
	"time"
)

// Event is one message on an analysis progress stream.
type Event struct {
	Stage     string    `json:"stage"` // "started", "searching", "done", "error"
	ElapsedMs int64     `json:"elapsed_ms"`
	Error     string    `json:"error,omitempty"`
	Result    *Response `json:"result,omitempty"`
}

// AnalyzeStream runs Analyze while emitting progress events on out. The
// channel is closed when the analysis finishes; heartbeats every interval
// keep slow searches visibly alive. Cancelling ctx stops the heartbeats but
// the underlying search still runs to its own budget.
func (e *Engine) AnalyzeStream(ctx context.Context, req Request, interval time.Duration, out chan<- Event) {
	defer close(out)
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	start := time.Now()
	out <- Event{Stage: "started"}

	type outcome struct {
		resp Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := e.Analyze(ctx, req)
		done <- outcome{resp, err}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case o := <-done:
			if o.err != nil {
				out <- Event{Stage: "error", ElapsedMs: time.Since(start).Milliseconds(), Error: o.err.Error()}
				return
			}
			out <- Event{Stage: "done", ElapsedMs: time.Since(start).Milliseconds(), Result: &o.resp}
			return
		case <-ticker.C:
			out <- Event{Stage: "searching", ElapsedMs: time.Since(start).Milliseconds()}
		case <-ctx.Done():
			out <- Event{Stage: "error", ElapsedMs: time.Since(start).Milliseconds(), Error: ctx.Err().Error()}
			return
		}
	}
}
