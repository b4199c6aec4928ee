package decoder

import (
	"context"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/sumpdec/capture"
)

// Job is a decode run executing on its own goroutine.
//
// The controlling goroutine observes it through Progress and stops it with
// Cancel; the only shared state is the atomic progress value and the
// context's cancellation.
type Job struct {
	cancel   context.CancelFunc
	done     chan struct{}
	progress atomic.Int32
	result   Result
	err      error
}

// Start runs dec over buf on a new goroutine.
func Start(ctx context.Context, dec Decoder, buf *capture.Buffer, opts ...RunOption) *Job {
	ctx, cancel := context.WithCancel(ctx)

	j := &Job{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	runOpts := append(slices.Clone(opts), WithProgress(func(phase Phase, percent int) {
		j.progress.Store(int32(phase)<<8 | int32(percent))
	}))

	go func() {
		defer close(j.done)
		defer cancel()

		j.result, j.err = dec.Decode(ctx, buf, runOpts...)
	}()

	return j
}

// Progress returns the most recently reported phase and percentage.
func (j *Job) Progress() (Phase, int) {
	v := j.progress.Load()

	return Phase(v >> 8), int(v & 0xFF)
}

// Cancel requests the run to stop. The run ends with StatusCancelled unless
// it already finished.
func (j *Job) Cancel() {
	j.cancel()
}

// Done is closed when the run has ended.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the run ends and returns its outcome.
func (j *Job) Wait() (Result, error) {
	<-j.done

	return j.result, j.err
}

// DecodeAll runs every decoder concurrently over the same buffer.
//
// Results are returned in the order of decoders. The first configuration
// error cancels the remaining runs and is returned. opts are shared by all
// runs, so progress callbacks and sinks must be safe for concurrent use.
func DecodeAll(ctx context.Context, buf *capture.Buffer, decoders []Decoder, opts ...RunOption) ([]Result, error) {
	results := make([]Result, len(decoders))

	g, ctx := errgroup.WithContext(ctx)
	for i, dec := range decoders {
		g.Go(func() error {
			res, err := dec.Decode(ctx, buf, opts...)
			if err != nil {
				return err
			}
			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
