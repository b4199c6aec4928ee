package encoding

import (
	"fmt"

	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/endian"
	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/internal/options"
	"github.com/arloliu/sumpdec/internal/pool"
)

// RLEDecoder reconstructs a sample buffer from an RLE stream.
//
// By default the output has one entry per (sample, count) pair, stamped with
// the tick the run starts at, which is the transition form protocol decoders
// expect. WithExpandedRuns produces one entry per tick instead.
//
// An RLEDecoder holds no per-stream state and may be shared between goroutines.
type RLEDecoder struct {
	cfg      RLEConfig
	words    endian.WordEngine
	expanded bool
	trigger  int64
	rate     int
}

// RLEDecoderOption configures an RLEDecoder.
type RLEDecoderOption = options.Option[*RLEDecoder]

// WithExpandedRuns emits count+1 entries per pair, one per tick.
func WithExpandedRuns() RLEDecoderOption {
	return options.NoError(func(d *RLEDecoder) {
		d.expanded = true
	})
}

// WithTrigger sets the trigger position of decoded buffers.
func WithTrigger(position int64) RLEDecoderOption {
	return options.New(func(d *RLEDecoder) error {
		if position < 0 && position != capture.NoTrigger {
			return fmt.Errorf("invalid trigger position %d", position)
		}
		d.trigger = position

		return nil
	})
}

// WithRate sets the sample rate, in Hz, of decoded buffers.
func WithRate(hz int) RLEDecoderOption {
	return options.New(func(d *RLEDecoder) error {
		if hz < 0 {
			return fmt.Errorf("invalid sample rate %d", hz)
		}
		d.rate = hz

		return nil
	})
}

// NewRLEDecoder creates a decoder for the given channel layout.
//
// Returns errs.ErrInvalidChannelMask or errs.ErrUnsupportedDDRGroups when the
// layout cannot describe a valid stream. The DDR check only depends on the
// configuration, so an unsupported layout fails on every call.
func NewRLEDecoder(cfg RLEConfig, opts ...RLEDecoderOption) (*RLEDecoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	words, err := endian.NewWordEngine(endian.GetLittleEndianEngine(), cfg.Width())
	if err != nil {
		return nil, err
	}

	d := &RLEDecoder{
		cfg:     cfg,
		words:   words,
		trigger: capture.NoTrigger,
	}
	if err := options.Apply(d, opts...); err != nil {
		return nil, err
	}

	return d, nil
}

// Config returns the channel layout the decoder expects.
func (d *RLEDecoder) Config() RLEConfig {
	return d.cfg
}

// Decode parses data and returns the reconstructed buffer.
//
// Leading padding runs are preserved: the first entry is always at tick 0.
//
// Returns an error wrapping errs.ErrMalformedStream, annotated with the word
// offset, when:
//   - a count word is not preceded by a sample word (errs.ErrCountWithoutSample)
//   - a sample word follows another sample word (errs.ErrMissingCount)
//   - the stream ends inside a word or after a sample word (errs.ErrTruncatedStream)
func (d *RLEDecoder) Decode(data []byte) (*capture.Buffer, error) {
	width := d.words.Width()
	wordCount := len(data) / width
	if len(data)%width != 0 {
		return nil, fmt.Errorf("%w: partial word at word %d (%d trailing bytes)",
			errs.ErrTruncatedStream, wordCount, len(data)%width)
	}

	samples, releaseSamples := pool.GetUint32Slice(wordCount / 2)
	defer releaseSamples()
	counts, releaseCounts := pool.GetInt64Slice(wordCount / 2)
	defer releaseCounts()

	top := d.words.TopBit()
	pending := false
	var sample uint32
	var ticks int64

	for i := range wordCount {
		w := d.words.Uint(data[i*width:])
		if w&top != 0 {
			if !pending {
				return nil, fmt.Errorf("%w at word %d", errs.ErrCountWithoutSample, i)
			}
			count := int64(w &^ top)
			samples = append(samples, sample)
			counts = append(counts, count)
			ticks += count + 1
			pending = false

			continue
		}

		if pending {
			return nil, fmt.Errorf("%w at word %d", errs.ErrMissingCount, i)
		}
		sample = d.cfg.Unpack(w)
		pending = true
	}

	if pending {
		return nil, fmt.Errorf("%w: sample word without count at word %d", errs.ErrTruncatedStream, wordCount-1)
	}

	values, timestamps := d.materialize(samples, counts, ticks)

	return capture.Wrap(values, timestamps,
		capture.WithEnabledChannels(d.cfg.EnabledChannels),
		capture.WithTrigger(d.trigger),
		capture.WithRate(d.rate),
		capture.WithAbsoluteLength(ticks),
	)
}

func (d *RLEDecoder) materialize(samples []uint32, counts []int64, ticks int64) ([]uint32, []int64) {
	size := int64(len(samples))
	if d.expanded {
		size = ticks
	}

	values := make([]uint32, 0, size)
	timestamps := make([]int64, 0, size)

	var tick int64
	for i, v := range samples {
		if !d.expanded {
			values = append(values, v)
			timestamps = append(timestamps, tick)
			tick += counts[i] + 1

			continue
		}

		for range counts[i] + 1 {
			values = append(values, v)
			timestamps = append(timestamps, tick)
			tick++
		}
	}

	return values, timestamps
}
