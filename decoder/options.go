package decoder

import (
	"fmt"

	"github.com/arloliu/sumpdec/annotation"
	"github.com/arloliu/sumpdec/internal/options"
	"github.com/arloliu/sumpdec/log"
)

// Phase identifies a stage of a decode run for progress reporting.
type Phase int

const (
	PhaseSeekIdle  Phase = iota // PhaseSeekIdle searches for an idle bus.
	PhaseSeekStart              // PhaseSeekStart searches for the first start condition or clock edge.
	PhaseDecode                 // PhaseDecode decodes the remaining samples.
)

func (p Phase) String() string {
	switch p {
	case PhaseSeekIdle:
		return "seek idle"
	case PhaseSeekStart:
		return "seek start"
	case PhaseDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// ProgressFunc receives the percentage of samples scanned in a phase.
// It is called synchronously from the scanning goroutine.
type ProgressFunc func(phase Phase, percent int)

// RunConfig holds the per-run settings shared by every protocol.
type RunConfig struct {
	Progress      ProgressFunc
	Sink          annotation.Sink
	Logger        *log.Logger
	CheckInterval int
}

// RunOption configures a single decode run.
type RunOption = options.Option[*RunConfig]

// NewRunConfig applies opts to the default run settings.
func NewRunConfig(opts ...RunOption) (*RunConfig, error) {
	cfg := &RunConfig{CheckInterval: 1}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithProgress sets the progress callback. Several callbacks may be set; all
// of them are called, in order.
func WithProgress(fn ProgressFunc) RunOption {
	return options.NoError(func(c *RunConfig) {
		if fn == nil {
			return
		}
		prev := c.Progress
		if prev == nil {
			c.Progress = fn
			return
		}
		c.Progress = func(phase Phase, percent int) {
			prev(phase, percent)
			fn(phase, percent)
		}
	})
}

// WithSink forwards every emitted annotation the sink supports.
func WithSink(sink annotation.Sink) RunOption {
	return options.NoError(func(c *RunConfig) {
		c.Sink = sink
	})
}

// WithLogger sets the logger for diagnostics such as detected roles and
// not-found outcomes.
func WithLogger(logger *log.Logger) RunOption {
	return options.NoError(func(c *RunConfig) {
		c.Logger = logger
	})
}

// WithCheckInterval polls the cancellation flag every n samples instead of
// every sample.
func WithCheckInterval(n int) RunOption {
	return options.New(func(c *RunConfig) error {
		if n < 1 {
			return fmt.Errorf("invalid check interval %d", n)
		}
		c.CheckInterval = n

		return nil
	})
}
