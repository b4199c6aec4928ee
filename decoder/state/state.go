// Package state analyses a capture as synchronous state data.
//
// A clock channel is watched for the configured edge; at every such edge the
// full channel word is latched as one state. Each STATE annotation spans
// from its clock edge to the sample before the next one, and Convert turns
// the states into a buffer whose timestamps count clock edges.
package state

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/sumpdec/annotation"
	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/decoder"
	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/format"
	"github.com/arloliu/sumpdec/internal/options"
)

// Edge selects the clock transition that latches a state.
type Edge uint8

const (
	EdgeRising  Edge = iota + 1 // EdgeRising latches on low to high.
	EdgeFalling                 // EdgeFalling latches on high to low.
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	default:
		return fmt.Sprintf("Edge(%d)", uint8(e))
	}
}

// ParseEdge returns the edge with the given (case-insensitive) name.
func ParseEdge(name string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rising":
		return EdgeRising, nil
	case "falling":
		return EdgeFalling, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidEdge, name)
	}
}

// MarshalYAML writes the edge name.
func (e Edge) MarshalYAML() (any, error) {
	return e.String(), nil
}

// UnmarshalYAML reads an edge name.
func (e *Edge) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}

	edge, err := ParseEdge(name)
	if err != nil {
		return err
	}
	*e = edge

	return nil
}

// Config holds the state analyser settings.
type Config struct {
	Clock int  `yaml:"clock"`
	Edge  Edge `yaml:"edge"`
}

// Option configures a Config.
type Option = options.Option[*Config]

// DefaultConfig returns clock channel 0 latching on rising edges.
func DefaultConfig() Config {
	return Config{Clock: 0, Edge: EdgeRising}
}

// NewConfig applies opts to DefaultConfig and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	if err := options.ApplyAndValidate(&cfg, opts...); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the clock line and edge.
func (c *Config) Validate() error {
	if c.Clock < 0 || c.Clock > 31 {
		return fmt.Errorf("%w: clock %d", errs.ErrInvalidLine, c.Clock)
	}
	if c.Edge != EdgeRising && c.Edge != EdgeFalling {
		return fmt.Errorf("%w: %s", errs.ErrInvalidEdge, c.Edge)
	}

	return nil
}

// WithClock sets the clock channel.
func WithClock(line int) Option {
	return options.NoError(func(c *Config) {
		c.Clock = line
	})
}

// WithEdge sets the latching edge.
func WithEdge(edge Edge) Option {
	return options.NoError(func(c *Config) {
		c.Edge = edge
	})
}

// Constructor builds a state analyser from registry options.
func Constructor(unmarshal func(any) error) (decoder.Decoder, error) {
	cfg := DefaultConfig()
	if unmarshal != nil {
		if err := unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("state options: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return New(cfg), nil
}

var _ decoder.Decoder = (*Decoder)(nil)

// Decoder is the clock-edge state analyser.
type Decoder struct {
	cfg Config
}

// New creates a state analyser.
func New(cfg Config) *Decoder {
	return &Decoder{cfg: cfg}
}

// Config returns the analyser settings.
func (d *Decoder) Config() Config {
	return d.cfg
}

// Protocol returns format.ProtocolState.
func (d *Decoder) Protocol() format.Protocol {
	return format.ProtocolState
}

// Decode emits one STATE annotation per clock edge.
func (d *Decoder) Decode(ctx context.Context, buf *capture.Buffer, opts ...decoder.RunOption) (decoder.Result, error) {
	if err := d.cfg.Validate(); err != nil {
		return decoder.Result{}, err
	}
	if !buf.ChannelEnabled(d.cfg.Clock) {
		return decoder.Result{}, fmt.Errorf("%w: clock %d", errs.ErrChannelNotEnabled, d.cfg.Clock)
	}

	cfg, err := decoder.NewRunConfig(opts...)
	if err != nil {
		return decoder.Result{}, err
	}
	logger := cfg.Logger.Named("state")

	run := decoder.NewRun(ctx, cfg, buf.Len())
	defer run.Close()

	em := decoder.NewEmitter(format.ProtocolState, buf, cfg, d.cfg.Clock)
	latchHigh := d.cfg.Edge == EdgeRising
	n := buf.Len()
	last := -1

	run.Enter(decoder.PhaseDecode)
	for i := 1; i < n; i++ {
		if !run.Step(i) {
			return decoder.Cancelled(format.ProtocolState, i), nil
		}

		level := buf.Level(i, d.cfg.Clock)
		if level == buf.Level(i-1, d.cfg.Clock) || level != latchHigh {
			continue
		}

		if last >= 0 {
			if err := em.Datagram(d.cfg.Clock, annotation.KindState, buf.Value(last), last, i-1); err != nil {
				return decoder.Result{}, err
			}
		}
		last = i
	}

	if last < 0 {
		logger.Debug("no clock edge", map[string]any{"clock": d.cfg.Clock, "edge": d.cfg.Edge.String()})
		return decoder.NotFound(format.ProtocolState, errs.ErrNoClockEdge, n), nil
	}
	if err := em.Datagram(d.cfg.Clock, annotation.KindState, buf.Value(last), last, n-1); err != nil {
		return decoder.Result{}, err
	}
	run.Finish()

	logger.Debug("states latched", map[string]any{"states": em.Set().Len()})

	return decoder.Result{
		Protocol:    format.ProtocolState,
		Status:      decoder.StatusCompleted,
		Annotations: em.Set(),
		Roles:       map[string]int{"clock": d.cfg.Clock},
		Scanned:     n,
	}, nil
}

// Convert decodes buf and returns the latched states as a state-mode
// buffer: one sample per clock edge, timestamped with the edge ordinal.
// A trigger maps to the first state latched at or after it.
//
// A run that finds no clock edge returns errs.ErrNoClockEdge; a cancelled
// run returns the context error.
func (d *Decoder) Convert(ctx context.Context, buf *capture.Buffer, opts ...decoder.RunOption) (*capture.Buffer, error) {
	res, err := d.Decode(ctx, buf, opts...)
	if err != nil {
		return nil, err
	}

	switch res.Status {
	case decoder.StatusCancelled:
		return nil, context.Cause(ctx)
	case decoder.StatusNotFound:
		return nil, res.Reason
	}

	n := res.Annotations.Len()
	values := make([]uint32, 0, n)
	timestamps := make([]int64, 0, n)
	trigger := capture.NoTrigger
	for i, a := range res.Annotations.All() {
		values = append(values, a.Value)
		timestamps = append(timestamps, int64(i))
		if trigger == capture.NoTrigger && buf.HasTrigger() && buf.Timestamp(a.StartIndex) >= buf.TriggerPosition() {
			trigger = int64(i)
		}
	}

	return capture.Wrap(values, timestamps,
		capture.WithEnabledChannels(buf.EnabledChannels()),
		capture.WithTrigger(trigger),
	)
}
