// Package i2c decodes the two-wire I2C bus.
//
// The decoder waits for an idle bus (both lines high), takes the first line
// that drops as the start condition on SDA and then follows SCL edges:
// each rising SCL edge samples one data bit, the ninth one the acknowledge.
// SDA moving while SCL is high is a STOP (rising) or START (falling) when it
// happens between bytes, and a bus error anywhere else.
//
// # Basic Usage
//
//	cfg, _ := i2c.NewConfig(i2c.WithLines(0, 1), i2c.WithReportACK(false))
//	res, err := i2c.New(cfg).Decode(ctx, buf)
//	for a := range res.Annotations.Filter(annotation.KindData) {
//		fmt.Printf("%#02x at %d\n", a.Value, a.StartTime)
//	}
package i2c

import (
	"context"
	"errors"

	"github.com/arloliu/sumpdec/annotation"
	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/decoder"
	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/format"
)

// bitsPerByte is the number of data bits before the acknowledge clock.
const bitsPerByte = 8

var _ decoder.Decoder = (*Decoder)(nil)

// errCancelled stops a seek loop; it never leaves the package.
var errCancelled = errors.New("i2c: run cancelled")

// Decoder is an I2C protocol decoder. It is safe for concurrent use.
type Decoder struct {
	cfg Config
}

// New creates a decoder. cfg should come from NewConfig; Decode validates it
// again before each run.
func New(cfg Config) *Decoder {
	return &Decoder{cfg: cfg}
}

// Config returns the decoder settings.
func (d *Decoder) Config() Config {
	return d.cfg
}

// Protocol returns format.ProtocolI2C.
func (d *Decoder) Protocol() format.Protocol {
	return format.ProtocolI2C
}

// roles is the line assignment of one run.
type roles struct {
	sda, scl int
}

// Decode scans buf for I2C traffic.
func (d *Decoder) Decode(ctx context.Context, buf *capture.Buffer, opts ...decoder.RunOption) (decoder.Result, error) {
	if err := d.cfg.Validate(); err != nil {
		return decoder.Result{}, err
	}
	if err := d.cfg.validateFor(buf); err != nil {
		return decoder.Result{}, err
	}

	cfg, err := decoder.NewRunConfig(opts...)
	if err != nil {
		return decoder.Result{}, err
	}

	logger := cfg.Logger.Named("i2c")
	if logger != nil {
		logger = logger.With(map[string]any{
			"fingerprint": buf.Fingerprint(),
			"samples":     buf.Len(),
		})
	}
	logger.Debug("decode started", map[string]any{
		"sda":         d.cfg.SDA,
		"scl":         d.cfg.SCL,
		"auto_detect": d.cfg.AutoDetect,
	})

	run := decoder.NewRun(ctx, cfg, buf.Len())
	defer run.Close()

	start, lines, reason := d.seekStart(run, buf)
	if errors.Is(reason, errCancelled) {
		return decoder.Cancelled(format.ProtocolI2C, start), nil
	}
	if reason != nil {
		logger.Debug("nothing to decode", map[string]any{"reason": reason.Error()})

		return decoder.NotFound(format.ProtocolI2C, reason, buf.Len()), nil
	}

	logger.Debug("start condition found", map[string]any{
		"index": start,
		"sda":   lines.sda,
		"scl":   lines.scl,
	})

	em := decoder.NewEmitter(format.ProtocolI2C, buf, cfg, d.cfg.SDA, d.cfg.SCL)
	scanned, err := d.decode(run, buf, em, start, lines)
	if err != nil {
		return decoder.Result{}, err
	}
	if run.Cancelled() && scanned < buf.Len() {
		return decoder.Cancelled(format.ProtocolI2C, scanned), nil
	}
	run.Finish()

	set := em.Set()
	logger.Debug("decode finished", map[string]any{
		"datagrams":  set.Datagrams(),
		"bus_errors": set.Count(annotation.KindBusError),
	})

	return decoder.Result{
		Protocol:    format.ProtocolI2C,
		Status:      decoder.StatusCompleted,
		Annotations: set,
		Roles:       map[string]int{"sda": lines.sda, "scl": lines.scl},
		Scanned:     scanned,
	}, nil
}

// seekStart finds the first start condition after an idle bus. It returns
// the sample index and the line roles, or the not-found reason. On
// cancellation the index is the number of samples scanned.
func (d *Decoder) seekStart(run *decoder.Run, buf *capture.Buffer) (int, roles, error) {
	n := buf.Len()
	maskA := uint32(1) << d.cfg.SDA
	maskB := uint32(1) << d.cfg.SCL
	both := maskA | maskB

	sawIdle := false
	i := 0
	for {
		run.Enter(decoder.PhaseSeekIdle)
		for ; i < n; i++ {
			if !run.Step(i) {
				return i, roles{}, errCancelled
			}
			if buf.Value(i)&both == both {
				break
			}
		}
		if i == n {
			if sawIdle {
				return n, roles{}, errs.ErrNoStartCondition
			}
			return n, roles{}, errs.ErrNoIdleState
		}
		sawIdle = true

		run.Enter(decoder.PhaseSeekStart)
		for ; i < n; i++ {
			if !run.Step(i) {
				return i, roles{}, errCancelled
			}

			switch v := buf.Value(i) & both; v {
			case both:
				continue
			case maskB:
				// line A dropped first
				return i, roles{sda: d.cfg.SDA, scl: d.cfg.SCL}, nil
			case maskA:
				if d.cfg.AutoDetect {
					return i, roles{sda: d.cfg.SCL, scl: d.cfg.SDA}, nil
				}
			default:
				if d.cfg.AutoDetect {
					continue
				}
			}

			// left idle through SCL or through both lines at once
			break
		}
		if i == n {
			return n, roles{}, errs.ErrNoStartCondition
		}
	}
}

// decode runs the bus state machine from the start condition at index start.
// It returns the number of samples scanned.
func (d *Decoder) decode(run *decoder.Run, buf *capture.Buffer, em *decoder.Emitter, start int, lines roles) (int, error) {
	n := buf.Len()
	sdaMask := uint32(1) << lines.sda
	sclMask := uint32(1) << lines.scl
	channel := lines.sda

	event := func(report bool, kind annotation.Kind, index int) error {
		if !report {
			return nil
		}
		return em.Event(channel, kind, index)
	}

	if err := event(d.cfg.ReportStart, annotation.KindStart, start); err != nil {
		return 0, err
	}

	v := buf.Value(start)
	oldSDA := v&sdaMask != 0
	oldSCL := v&sclMask != 0
	bitCount := bitsPerByte
	var value uint32
	byteStart := start
	released := false

	run.Enter(decoder.PhaseDecode)
	for i := start; i < n-1; i++ {
		if !run.Step(i) {
			return i, nil
		}

		v := buf.Value(i)
		sda := v&sdaMask != 0
		scl := v&sclMask != 0

		if scl && !oldSCL {
			switch {
			case sda != oldSDA:
				if err := em.Event(channel, annotation.KindBusError, i); err != nil {
					return i, err
				}
			case bitCount == 0:
				if sda {
					if err := event(d.cfg.ReportNACK, annotation.KindNack, i); err != nil {
						return i, err
					}
				} else if err := event(d.cfg.ReportACK, annotation.KindAck, i); err != nil {
					return i, err
				}
				bitCount = bitsPerByte
			default:
				if bitCount == bitsPerByte {
					byteStart = i
				}
				bitCount--
				if sda {
					value |= 1 << bitCount
				}
				if bitCount == 0 {
					if err := em.Datagram(channel, annotation.KindData, value, max(byteStart, em.LastIndex()), i); err != nil {
						return i, err
					}
					value = 0
				}
			}
		}

		if scl && sda != oldSDA {
			if bitCount < bitsPerByte-1 {
				if err := em.Event(channel, annotation.KindBusError, i); err != nil {
					return i, err
				}
			} else {
				var err error
				switch {
				case sda:
					err = event(d.cfg.ReportStop, annotation.KindStop, i)
					released = true
				case released:
					err = event(d.cfg.ReportStart, annotation.KindStart, i)
					released = false
				default:
					err = event(d.cfg.ReportStart, annotation.KindRepeatedStart, i)
				}
				if err != nil {
					return i, err
				}
				bitCount = bitsPerByte
				value = 0
			}
		}

		oldSCL = scl
		oldSDA = sda
	}

	return n, nil
}
