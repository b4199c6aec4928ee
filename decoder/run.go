package decoder

import (
	"context"
	"sync/atomic"
)

// Run tracks cancellation and progress of one decode run.
//
// Cancellation crosses goroutines through a single atomic flag set by a
// context.AfterFunc callback; the scanning loop polls it through Step.
type Run struct {
	cfg       *RunConfig
	total     int
	cancelled atomic.Bool
	stop      func() bool

	phase   Phase
	percent int
	steps   int
}

// NewRun starts tracking a run over total samples. Close must be called when
// the run ends.
func NewRun(ctx context.Context, cfg *RunConfig, total int) *Run {
	r := &Run{cfg: cfg, total: total, percent: -1}
	r.stop = context.AfterFunc(ctx, func() {
		r.cancelled.Store(true)
	})
	if ctx.Err() != nil {
		r.cancelled.Store(true)
	}

	return r
}

// Close releases the context registration.
func (r *Run) Close() {
	r.stop()
}

// Cancelled reports whether cancellation was requested.
func (r *Run) Cancelled() bool {
	return r.cancelled.Load()
}

// Config returns the run settings.
func (r *Run) Config() *RunConfig {
	return r.cfg
}

// Enter starts a new progress phase.
func (r *Run) Enter(phase Phase) {
	r.phase = phase
	r.percent = -1
}

// Step records that sample index i is being examined. It returns false once
// the run has been cancelled; the caller must stop scanning.
func (r *Run) Step(i int) bool {
	r.steps++
	if r.steps%r.cfg.CheckInterval == 0 && r.cancelled.Load() {
		return false
	}

	if r.cfg.Progress != nil && r.total > 0 {
		r.report(int(int64(i) * 100 / int64(r.total)))
	}

	return true
}

// Finish reports 100% for the current phase.
func (r *Run) Finish() {
	if r.cfg.Progress != nil {
		r.report(100)
	}
}

// report forwards percent when it advanced within the phase.
func (r *Run) report(percent int) {
	if percent <= r.percent {
		return
	}
	r.percent = percent
	r.cfg.Progress(r.phase, percent)
}
